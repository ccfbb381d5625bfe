// Package audit defines the fire-and-forget audit event contract.
// The core emits events; persistence and querying belong to whatever sits
// behind the Sink (here: a Redis queue drained by the worker pool).
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions emitted by the core.
const (
	ActionCheckIn          = "CHECK_IN"
	ActionCheckOut         = "CHECK_OUT"
	ActionTicketVoid       = "TICKET_VOID"
	ActionShiftOpen        = "SHIFT_OPEN"
	ActionShiftClose       = "SHIFT_CLOSE"
	ActionPaymentRecovered = "PAYMENT_RECOVERED"
	ActionSlotStatus       = "SLOT_STATUS"
)

// Field is one entry of an ordered before/after snapshot. Events carry field
// lists, not serialized blobs — JSON encoding happens at the sink edge.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is one audit fact. Emission is best-effort: a sink failure must never
// fail or roll back the operation that produced the event.
type Event struct {
	ActorID    uuid.UUID `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Before     []Field   `json:"before,omitempty"`
	After      []Field   `json:"after,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sink receives audit events. Implementations must be safe for concurrent use
// and must not block the caller beyond a single enqueue attempt.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// NopSink discards every event. Used in unit tests and as a fallback when no
// queue is configured.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}
