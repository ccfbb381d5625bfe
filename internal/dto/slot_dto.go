package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSlotRequest struct {
	Number     string          `json:"number"      validate:"required,min=1,max=10"`
	Type       string          `json:"type"        validate:"required,oneof=standard compact large handicap"`
	HourlyRate decimal.Decimal `json:"hourly_rate" validate:"required,gt=0"`
	DailyRate  decimal.Decimal `json:"daily_rate"  validate:"min=0"`
}

type UpdateSlotRequest struct {
	Type       string           `json:"type"        validate:"omitempty,oneof=standard compact large handicap"`
	HourlyRate *decimal.Decimal `json:"hourly_rate" validate:"omitempty,gt=0"`
	DailyRate  *decimal.Decimal `json:"daily_rate"  validate:"omitempty,min=0"`
}

// SetSlotStatusRequest is the administrative override; the lifecycle engine
// never goes through it.
type SetSlotStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=vacant occupied reserved out_of_service"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SlotResponse struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	Status     string          `json:"status"`
	Type       string          `json:"type"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	DailyRate  decimal.Decimal `json:"daily_rate"`
	Active     bool            `json:"active"`
}

// OccupancyResponse is the facility snapshot used by the dashboard.
type OccupancyResponse struct {
	Total        int `json:"total"`
	Vacant       int `json:"vacant"`
	Occupied     int `json:"occupied"`
	Reserved     int `json:"reserved"`
	OutOfService int `json:"out_of_service"`
}
