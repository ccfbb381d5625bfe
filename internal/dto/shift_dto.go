package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

type CloseShiftRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VarianceResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Class  string          `json:"class"` // normal | warning | critical
}

type ShiftResponse struct {
	ID             string            `json:"id"`
	CashierID      string            `json:"cashier_id"`
	CashierName    string            `json:"cashier_name,omitempty"`
	ShiftDate      string            `json:"shift_date"`
	OpenTime       string            `json:"open_time"`
	CloseTime      *string           `json:"close_time"`
	OpeningAmount  decimal.Decimal   `json:"opening_amount"`
	ClosingAmount  *decimal.Decimal  `json:"closing_amount"`
	TotalCollected *decimal.Decimal  `json:"total_collected"`
	Variance       *VarianceResponse `json:"variance"`
	Status         string            `json:"status"`
	Notes          *string           `json:"notes"`
}

// ShiftSummaryResponse is the read-only daily aggregate for one cashier.
type ShiftSummaryResponse struct {
	CashierID      string          `json:"cashier_id"`
	Date           string          `json:"date"`
	TicketsToday   int64           `json:"tickets_today"`
	PaidToday      int64           `json:"paid_today"`
	PendingToday   int64           `json:"pending_today"`
	TotalCollected decimal.Decimal `json:"total_collected"`
}

type ShiftListResponse struct {
	Data  []ShiftResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
