package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is the persisted form of an audit event. Rows are written only
// by the audit worker draining the Redis queue; the core emits events and
// never reads this table.
type AuditRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Action     string    `gorm:"type:varchar(40);not null;index"`
	EntityType string    `gorm:"type:varchar(40);not null"`
	EntityID   string    `gorm:"type:varchar(60);not null;index"`
	// Before/After are JSON-serialized ordered field lists; serialization
	// happens at the persistence edge, not inside the core's event type.
	Before    []byte    `gorm:"type:jsonb"`
	After     []byte    `gorm:"type:jsonb"`
	Timestamp time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}
