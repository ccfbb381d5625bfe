package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket records one vehicle's stay, from check-in to settlement.
// PaymentStatus: "pending" | "paid" | "cancelled"
//
// A ticket is created OPEN by check-in (check_out_time null, status pending)
// and mutated exactly once by check-out, which stamps check_out_time,
// duration_hours and total_amount and flips the status to paid — all inside
// the same transaction that inserts the Payment row and frees the slot.
// Tickets are never deleted.
type Ticket struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketNumber string    `gorm:"uniqueIndex;not null"`
	SlotID       uuid.UUID `gorm:"type:uuid;not null;index"`
	VehicleID    uuid.UUID `gorm:"type:uuid;not null;index"`
	DriverID     uuid.UUID `gorm:"type:uuid;not null"`
	CashierID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CheckInTime  time.Time `gorm:"not null"`
	CheckOutTime *time.Time
	// DurationHours is the fractional elapsed time; billing rounds it up to
	// whole hours with a one-hour minimum.
	DurationHours *decimal.Decimal `gorm:"type:decimal(8,2)"`
	TotalAmount   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PaymentStatus string           `gorm:"type:varchar(20);not null;default:'pending'"`
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Slot    *Slot    `gorm:"foreignKey:SlotID"`
	Vehicle *Vehicle `gorm:"foreignKey:VehicleID"`
	Driver  *Driver  `gorm:"foreignKey:DriverID"`
	Cashier *User    `gorm:"foreignKey:CashierID"`
	Payment *Payment `gorm:"foreignKey:TicketID"`
}
