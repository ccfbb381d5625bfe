package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an immutable settlement record.
// Method: "cash" | "card" | "transfer"
//
// The unique index on TicketID is load-bearing: it is what makes the
// payment-recovery check-then-insert race collapse to a duplicate-key error
// instead of a second row. Payments are never updated or deleted.
type Payment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method          string          `gorm:"type:varchar(20);not null"`
	ReferenceNumber *string         `gorm:"type:varchar(60)"`
	CashierID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReceiptNumber   string          `gorm:"uniqueIndex;not null"`
	// Recovered marks rows reconstructed by the data-repair path after a
	// partial checkout failure.
	Recovered   bool      `gorm:"not null;default:false"`
	PaymentDate time.Time `gorm:"not null"`
	CreatedAt   time.Time
}
