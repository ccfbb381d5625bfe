package service

import (
	"context"
	"errors"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/dto"
	"parkgate/internal/model"
	"parkgate/internal/repository"
	"parkgate/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShiftService owns the cashier accountability cycle: open with a declared
// float, close against a blind count, reconcile the variance.
type ShiftService interface {
	Open(ctx context.Context, cashierID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	Close(ctx context.Context, cashierID uuid.UUID, req dto.CloseShiftRequest) (*dto.ShiftResponse, error)
	Current(ctx context.Context, cashierID uuid.UUID) (*dto.ShiftResponse, error)
	Summary(ctx context.Context, cashierID uuid.UUID, date string) (*dto.ShiftSummaryResponse, error)
	History(ctx context.Context, page, limit int) (*dto.ShiftListResponse, error)
}

type shiftService struct {
	repo       repository.ShiftRepository
	tickets    repository.TicketRepository
	payments   repository.PaymentRepository
	sink       audit.Sink
	dispatcher *worker.Dispatcher // nil disables async shift reports
}

func NewShiftService(
	repo repository.ShiftRepository,
	tickets repository.TicketRepository,
	payments repository.PaymentRepository,
	sink audit.Sink,
	dispatcher *worker.Dispatcher,
) ShiftService {
	return &shiftService{
		repo:       repo,
		tickets:    tickets,
		payments:   payments,
		sink:       sink,
		dispatcher: dispatcher,
	}
}

func (s *shiftService) Open(ctx context.Context, cashierID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	now := time.Now().UTC()

	_, err := s.repo.FindOpenByCashierAndDate(ctx, cashierID, now)
	switch {
	case err == nil:
		return nil, ErrShiftAlreadyOpen
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	shift := &model.Shift{
		CashierID:     cashierID,
		ShiftDate:     now.Truncate(24 * time.Hour),
		OpenTime:      now,
		OpeningAmount: req.OpeningAmount,
		Status:        "open",
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		// The partial unique index closes the pre-check race: two
		// simultaneous opens for the same cashier and day yield one row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrShiftAlreadyOpen
		}
		return nil, err
	}

	s.sink.Emit(ctx, audit.Event{
		ActorID:    cashierID,
		Action:     audit.ActionShiftOpen,
		EntityType: "shift",
		EntityID:   shift.ID.String(),
		After: []audit.Field{
			{Key: "shift_date", Value: now.Format("2006-01-02")},
			{Key: "opening_amount", Value: req.OpeningAmount.StringFixed(2)},
			{Key: "status", Value: "open"},
		},
		Timestamp: now,
	})

	return shiftToResponse(shift), nil
}

// Close reconciles the drawer: totalCollected is system-computed from the
// ledger, variance = closingAmount - totalCollected. The count is blind —
// nothing here ever tells the cashier the expected figure beforehand.
func (s *shiftService) Close(ctx context.Context, cashierID uuid.UUID, req dto.CloseShiftRequest) (*dto.ShiftResponse, error) {
	now := time.Now().UTC()

	shift, err := s.repo.FindOpenByCashierAndDate(ctx, cashierID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenShift
		}
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoOpenShift
	}

	collected, err := s.payments.TotalCollectedByTicketCashier(ctx, cashierID, now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	variance := req.ClosingAmount.Sub(collected)
	var variancePct decimal.Decimal
	if !collected.IsZero() {
		variancePct = variance.Div(collected).Mul(decimal.NewFromInt(100)).Round(2)
	}
	class := classifyVariance(variancePct)

	if class == "critical" && (req.Notes == nil || *req.Notes == "") {
		return nil, ErrNotesRequired
	}

	shift.CloseTime = &now
	shift.ClosingAmount = &req.ClosingAmount
	shift.TotalCollected = &collected
	shift.Variance = &variance
	shift.VarianceClass = &class
	shift.Status = "closed"
	if req.Notes != nil {
		shift.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, shift); err != nil {
		return nil, err
	}

	s.sink.Emit(ctx, audit.Event{
		ActorID:    cashierID,
		Action:     audit.ActionShiftClose,
		EntityType: "shift",
		EntityID:   shift.ID.String(),
		Before: []audit.Field{
			{Key: "status", Value: "open"},
		},
		After: []audit.Field{
			{Key: "status", Value: "closed"},
			{Key: "closing_amount", Value: req.ClosingAmount.StringFixed(2)},
			{Key: "total_collected", Value: collected.StringFixed(2)},
			{Key: "variance", Value: variance.StringFixed(2)},
			{Key: "variance_class", Value: class},
		},
		Timestamp: now,
	})

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueShiftReport(ctx, worker.ShiftReportPayload{
			ShiftID: shift.ID.String(),
		}); err != nil {
			log.Error().Err(err).Str("shift_id", shift.ID.String()).
				Msg("failed to enqueue shift report")
		}
	}

	return shiftToResponse(shift), nil
}

func (s *shiftService) Current(ctx context.Context, cashierID uuid.UUID) (*dto.ShiftResponse, error) {
	shift, err := s.repo.FindOpenByCashierAndDate(ctx, cashierID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenShift
		}
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoOpenShift
	}
	return shiftToResponse(shift), nil
}

func (s *shiftService) Summary(ctx context.Context, cashierID uuid.UUID, date string) (*dto.ShiftSummaryResponse, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	total, paid, pending, err := s.tickets.CountByCashierAndDate(ctx, cashierID, date)
	if err != nil {
		return nil, err
	}
	collected, err := s.payments.TotalCollectedByTicketCashier(ctx, cashierID, date)
	if err != nil {
		return nil, err
	}
	return &dto.ShiftSummaryResponse{
		CashierID:      cashierID.String(),
		Date:           date,
		TicketsToday:   total,
		PaidToday:      paid,
		PendingToday:   pending,
		TotalCollected: collected,
	}, nil
}

func (s *shiftService) History(ctx context.Context, page, limit int) (*dto.ShiftListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	shifts, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		items = append(items, *shiftToResponse(&shifts[i]))
	}
	return &dto.ShiftListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// classifyVariance buckets the percentage deviation of the declared drawer
// count against collections: "normal" (≤1%), "warning" (≤5%), "critical".
func classifyVariance(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return "normal"
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return "warning"
	default:
		return "critical"
	}
}

func shiftToResponse(sh *model.Shift) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:             sh.ID.String(),
		CashierID:      sh.CashierID.String(),
		ShiftDate:      sh.ShiftDate.Format("2006-01-02"),
		OpenTime:       sh.OpenTime.Format(time.RFC3339),
		OpeningAmount:  sh.OpeningAmount,
		ClosingAmount:  sh.ClosingAmount,
		TotalCollected: sh.TotalCollected,
		Status:         sh.Status,
		Notes:          sh.Notes,
	}
	if sh.Cashier != nil {
		resp.CashierName = sh.Cashier.Name
	}
	if sh.CloseTime != nil {
		t := sh.CloseTime.Format(time.RFC3339)
		resp.CloseTime = &t
	}
	if sh.Variance != nil && sh.VarianceClass != nil {
		resp.Variance = &dto.VarianceResponse{Amount: *sh.Variance, Class: *sh.VarianceClass}
	}
	return resp
}
