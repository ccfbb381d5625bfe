package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Slot is a physical parking space with a billing rate and occupancy status.
// Status: "vacant" | "occupied" | "reserved" | "out_of_service"
// Type: "standard" | "compact" | "large" | "handicap"
//
// Invariant: a slot is "occupied" iff exactly one ticket references it with
// check_out_time IS NULL. Only the slot registry mutates Status.
type Slot struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number     string          `gorm:"uniqueIndex;not null"`
	Status     string          `gorm:"type:varchar(20);not null;default:'vacant'"`
	Type       string          `gorm:"type:varchar(20);not null;default:'standard'"`
	HourlyRate decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DailyRate  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
