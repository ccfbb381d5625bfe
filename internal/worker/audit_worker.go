package worker

// audit_worker.go
// Drains audit events from the Redis list and persists them as immutable
// audit records. Serialization of the ordered before/after field lists to
// JSON happens here, at the persistence edge.

import (
	"context"
	"encoding/json"
	"fmt"

	"parkgate/internal/audit"
	"parkgate/internal/model"
	"parkgate/internal/repository"
)

type AuditWorker struct {
	repo repository.AuditRepository
}

func NewAuditWorker(repo repository.AuditRepository) *AuditWorker {
	return &AuditWorker{repo: repo}
}

// Process decodes one audit event and inserts its record. A returned error
// sends the raw event to the DLQ; records are never dropped silently.
func (w *AuditWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var ev audit.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("audit worker: decode event: %w", err)
	}

	before, err := marshalFields(ev.Before)
	if err != nil {
		return err
	}
	after, err := marshalFields(ev.After)
	if err != nil {
		return err
	}

	rec := &model.AuditRecord{
		ActorID:    ev.ActorID,
		Action:     ev.Action,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Before:     before,
		After:      after,
		Timestamp:  ev.Timestamp,
	}
	return w.repo.Create(ctx, rec)
}

// marshalFields keeps the event's field order: a slice serializes in order,
// unlike a map.
func marshalFields(fields []audit.Field) ([]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("audit worker: marshal fields: %w", err)
	}
	return data, nil
}
