package service

import (
	"context"
	"errors"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/dto"
	"parkgate/internal/model"
	"parkgate/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentService is the read and repair surface over the payment ledger.
// Normal payment creation happens inside the check-out transaction; this
// service covers ledger queries and the recovery path for settled tickets
// whose payment row is missing.
type PaymentService interface {
	GetByTicket(ctx context.Context, ticketID uuid.UUID) (*dto.PaymentResponse, error)
	TotalCollected(ctx context.Context, cashierID uuid.UUID, date string) (decimal.Decimal, error)
	RecoverMissingPayment(ctx context.Context, actorID, ticketID uuid.UUID) (*dto.PaymentResponse, error)
}

type paymentService struct {
	repo    repository.PaymentRepository
	tickets repository.TicketRepository
	sink    audit.Sink
}

func NewPaymentService(repo repository.PaymentRepository, tickets repository.TicketRepository, sink audit.Sink) PaymentService {
	return &paymentService{repo: repo, tickets: tickets, sink: sink}
}

func (s *paymentService) GetByTicket(ctx context.Context, ticketID uuid.UUID) (*dto.PaymentResponse, error) {
	p, err := s.repo.FindByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentRecordMissing
		}
		return nil, err
	}
	return paymentToResponse(p), nil
}

func (s *paymentService) TotalCollected(ctx context.Context, cashierID uuid.UUID, date string) (decimal.Decimal, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	return s.repo.TotalCollectedByTicketCashier(ctx, cashierID, date)
}

// RecoverMissingPayment repairs a ticket marked paid whose payment row is
// absent. The amount comes from the stored total when present; otherwise it
// is recomputed from the recorded timestamps and the slot's hourly rate. The
// unique index on payments.ticket_id makes concurrent recoveries of the same
// ticket collapse to exactly one inserted row.
func (s *paymentService) RecoverMissingPayment(ctx context.Context, actorID, ticketID uuid.UUID) (*dto.PaymentResponse, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if ticket.PaymentStatus != "paid" {
		return nil, ErrPaymentUnrecoverable
	}
	if ticket.Payment != nil {
		return nil, ErrPaymentAlreadyExists
	}

	amount, err := recoveredAmount(ticket)
	if err != nil {
		return nil, err
	}

	receiptNumber, err := s.repo.NextReceiptNumber(ctx)
	if err != nil {
		return nil, err
	}

	ref := "RECOVERY"
	payment := &model.Payment{
		TicketID:        ticket.ID,
		Amount:          amount,
		Method:          "cash",
		ReferenceNumber: &ref,
		CashierID:       ticket.CashierID,
		ReceiptNumber:   receiptNumber,
		Recovered:       true,
		PaymentDate:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another recovery won the race.
			return nil, ErrPaymentAlreadyExists
		}
		return nil, err
	}

	s.sink.Emit(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionPaymentRecovered,
		EntityType: "payment",
		EntityID:   payment.ID.String(),
		After: []audit.Field{
			{Key: "ticket_number", Value: ticket.TicketNumber},
			{Key: "receipt_number", Value: receiptNumber},
			{Key: "amount", Value: amount.StringFixed(2)},
			{Key: "recovered", Value: "true"},
		},
		Timestamp: payment.PaymentDate,
	})

	return paymentToResponse(payment), nil
}

// recoveredAmount picks the best available source for the repaired amount.
func recoveredAmount(ticket *model.Ticket) (decimal.Decimal, error) {
	if ticket.TotalAmount != nil && ticket.TotalAmount.IsPositive() {
		return *ticket.TotalAmount, nil
	}
	if ticket.CheckOutTime != nil && ticket.Slot != nil && ticket.Slot.HourlyRate.IsPositive() {
		elapsed := decimal.NewFromFloat(ticket.CheckOutTime.Sub(ticket.CheckInTime).Hours())
		if elapsed.IsNegative() {
			elapsed = decimal.Zero
		}
		return ticket.Slot.HourlyRate.Mul(decimal.NewFromInt(billableHours(elapsed))), nil
	}
	return decimal.Zero, ErrPaymentUnrecoverable
}

func paymentToResponse(p *model.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:              p.ID.String(),
		TicketID:        p.TicketID.String(),
		Amount:          p.Amount,
		Method:          p.Method,
		ReferenceNumber: p.ReferenceNumber,
		ReceiptNumber:   p.ReceiptNumber,
		Recovered:       p.Recovered,
		PaymentDate:     p.PaymentDate.Format(time.RFC3339),
	}
}
