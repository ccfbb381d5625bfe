package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift is a cashier's accountable cash-handling period for one calendar day.
// Status: "open" | "closed"
// VarianceClass: "normal" | "warning" | "critical"
//
// At most one open shift exists per (cashier_id, shift_date); a partial
// unique index enforces this at the store (see infra schema patches).
type Shift struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashierID uuid.UUID `gorm:"type:uuid;not null;index"`
	ShiftDate time.Time `gorm:"type:date;not null;index"`
	OpenTime  time.Time `gorm:"not null"`
	CloseTime *time.Time
	// OpeningAmount is the declared drawer float at open.
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ClosingAmount is the declared drawer count at close; TotalCollected is
	// system-computed; Variance = ClosingAmount - TotalCollected.
	ClosingAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalCollected *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Variance       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	VarianceClass  *string          `gorm:"type:varchar(20)"`
	Status         string           `gorm:"type:varchar(20);not null;default:'open'"`
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Cashier *User `gorm:"foreignKey:CashierID"`
}
