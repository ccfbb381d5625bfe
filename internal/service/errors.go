package service

import "errors"

// Business errors returned to handlers, which map them to HTTP statuses with
// errors.Is. Messages are safe to show to the operator.
var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot is not vacant")
	ErrSlotInactive    = errors.New("slot is inactive")
	ErrSlotOccupied    = errors.New("slot has an open ticket and cannot be overridden")

	ErrTicketNotFound = errors.New("ticket not found")
	ErrAlreadyPaid    = errors.New("ticket is not pending payment")

	ErrShiftAlreadyOpen = errors.New("an open shift already exists for this cashier today")
	ErrNoOpenShift      = errors.New("no open shift for this cashier today")
	ErrNotesRequired    = errors.New("critical variance: supervisor notes are required")

	ErrPaymentAlreadyExists = errors.New("a payment already exists for this ticket")
	ErrPaymentRecordMissing = errors.New("paid ticket has no payment record")
	// ErrPaymentUnrecoverable means the repair path has nothing to work with
	// (no timestamps, no rate). Never fabricate an amount.
	ErrPaymentUnrecoverable = errors.New("payment cannot be reconstructed — contact an administrator")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	ErrEmailUnavailable = errors.New("email delivery is not configured")
)
