package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type VehicleInput struct {
	LicensePlate string  `json:"license_plate" validate:"required,min=2,max=15"`
	Type         string  `json:"type"          validate:"omitempty,oneof=car motorcycle truck van"`
	Make         *string `json:"make"`
	Color        *string `json:"color"`
}

type DriverInput struct {
	Name           string  `json:"name"            validate:"required,min=2,max=100"`
	Phone          *string `json:"phone"           validate:"omitempty,min=5,max=30"`
	DocumentNumber *string `json:"document_number" validate:"omitempty,min=3,max=40"`
}

type CheckInRequest struct {
	SlotID  string       `json:"slot_id" validate:"required,uuid"`
	Vehicle VehicleInput `json:"vehicle" validate:"required"`
	Driver  DriverInput  `json:"driver"  validate:"required"`
}

type CheckOutRequest struct {
	PaymentMethod   string  `json:"payment_method"   validate:"required,oneof=cash card transfer"`
	ReferenceNumber *string `json:"reference_number" validate:"omitempty,max=60"`
	Notes           *string `json:"notes"`
}

type EmailReceiptRequest struct {
	ToEmail string `json:"to_email" validate:"required,email"`
}

type VoidTicketRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type TicketFilter struct {
	Date   string `form:"date"`   // YYYY-MM-DD, default today
	Status string `form:"status"` // pending | paid | cancelled | all
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TicketResponse struct {
	ID            string           `json:"id"`
	TicketNumber  string           `json:"ticket_number"`
	SlotID        string           `json:"slot_id"`
	SlotNumber    string           `json:"slot_number"`
	LicensePlate  string           `json:"license_plate"`
	DriverName    string           `json:"driver_name"`
	CashierID     string           `json:"cashier_id"`
	CheckInTime   string           `json:"check_in_time"`
	CheckOutTime  *string          `json:"check_out_time"`
	DurationHours *decimal.Decimal `json:"duration_hours"`
	TotalAmount   *decimal.Decimal `json:"total_amount"`
	PaymentStatus string           `json:"payment_status"`
}

type PaymentResponse struct {
	ID              string          `json:"id"`
	TicketID        string          `json:"ticket_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber *string         `json:"reference_number"`
	ReceiptNumber   string          `json:"receipt_number"`
	Recovered       bool            `json:"recovered"`
	PaymentDate     string          `json:"payment_date"`
}

// ReceiptResponse is the display projection returned by check-out: ticket,
// slot, vehicle, driver, payment and cashier identity combined.
type ReceiptResponse struct {
	TicketNumber  string          `json:"ticket_number"`
	ReceiptNumber string          `json:"receipt_number"`
	SlotNumber    string          `json:"slot_number"`
	LicensePlate  string          `json:"license_plate"`
	DriverName    string          `json:"driver_name"`
	CashierName   string          `json:"cashier_name"`
	CheckInTime   string          `json:"check_in_time"`
	CheckOutTime  string          `json:"check_out_time"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	BilledHours   int64           `json:"billed_hours"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
}

type TicketListResponse struct {
	Data  []TicketResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
