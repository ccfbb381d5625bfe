package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/dto"
	"parkgate/internal/infra"
	"parkgate/internal/model"
	"parkgate/internal/repository"
	"parkgate/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TicketService orchestrates the ticket lifecycle: OPEN at check-in, SETTLED
// at check-out, CANCELLED via void. It composes the slot registry and the
// payment ledger.
type TicketService interface {
	CheckIn(ctx context.Context, cashierID uuid.UUID, req dto.CheckInRequest) (*dto.TicketResponse, error)
	CheckOut(ctx context.Context, cashierID, ticketID uuid.UUID, req dto.CheckOutRequest) (*dto.ReceiptResponse, error)
	Void(ctx context.Context, actorID, ticketID uuid.UUID, reason string) error
	Get(ctx context.Context, ticketID uuid.UUID) (*dto.TicketResponse, error)
	Search(ctx context.Context, query string) ([]dto.TicketResponse, error)
	List(ctx context.Context, filter dto.TicketFilter) (*dto.TicketListResponse, error)
	// ReceiptPDF renders the receipt for a settled ticket and returns the
	// file path.
	ReceiptPDF(ctx context.Context, ticketID uuid.UUID) (string, error)
	// EmailReceipt renders the receipt and enqueues it for delivery to the
	// given address.
	EmailReceipt(ctx context.Context, ticketID uuid.UUID, toEmail string) error
}

// EmailDispatcher enqueues outbound email jobs. *worker.Dispatcher satisfies
// it; tests substitute a recorder.
type EmailDispatcher interface {
	EnqueueEmail(ctx context.Context, payload interface{}) error
}

type ticketService struct {
	repo     repository.TicketRepository
	slots    SlotService
	payments repository.PaymentRepository
	vehicles repository.VehicleRepository
	drivers  repository.DriverRepository
	slotRepo repository.SlotRepository
	sink     audit.Sink
	emails   EmailDispatcher // nil disables receipt email

	facilityName   string
	pdfStoragePath string
}

func NewTicketService(
	repo repository.TicketRepository,
	slots SlotService,
	payments repository.PaymentRepository,
	vehicles repository.VehicleRepository,
	drivers repository.DriverRepository,
	slotRepo repository.SlotRepository,
	sink audit.Sink,
	emails EmailDispatcher,
	facilityName, pdfStoragePath string,
) TicketService {
	return &ticketService{
		repo:           repo,
		slots:          slots,
		payments:       payments,
		vehicles:       vehicles,
		drivers:        drivers,
		slotRepo:       slotRepo,
		sink:           sink,
		emails:         emails,
		facilityName:   facilityName,
		pdfStoragePath: pdfStoragePath,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// billableHours rounds a fractional duration up to whole hours. A duration of
// zero still bills one hour: any stay implies at least one billable hour.
func billableHours(duration decimal.Decimal) int64 {
	h := duration.Ceil().IntPart()
	if h < 1 {
		return 1
	}
	return h
}

// ── CheckIn ───────────────────────────────────────────────────────────────────
//  1. Reserve the slot (atomic vacant → occupied)
//  2. Upsert vehicle and driver by natural key
//  3. Sequence-generated ticket number, create the OPEN ticket
//  4. Emit CHECK_IN
//
// Any failure after the reservation releases the slot again, so a slot can
// never be stranded occupied without a ticket.

func (s *ticketService) CheckIn(ctx context.Context, cashierID uuid.UUID, req dto.CheckInRequest) (*dto.TicketResponse, error) {
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		return nil, ErrSlotNotFound
	}

	slot, err := s.slots.Reserve(ctx, slotID)
	if err != nil {
		return nil, err
	}

	// Compensating release for every failure from here on.
	fail := func(cause error) (*dto.TicketResponse, error) {
		if relErr := s.slots.Release(ctx, slotID); relErr != nil {
			log.Error().Err(relErr).Str("slot_id", slotID.String()).
				Msg("checkin: compensating slot release failed")
		}
		return nil, cause
	}

	vehicleType := req.Vehicle.Type
	if vehicleType == "" {
		vehicleType = "car"
	}
	vehicle, err := s.vehicles.UpsertByPlate(ctx, &model.Vehicle{
		LicensePlate: req.Vehicle.LicensePlate,
		Type:         vehicleType,
		Make:         req.Vehicle.Make,
		Color:        req.Vehicle.Color,
	})
	if err != nil {
		return fail(err)
	}

	driver, err := s.drivers.Upsert(ctx, &model.Driver{
		Name:           req.Driver.Name,
		Phone:          req.Driver.Phone,
		DocumentNumber: req.Driver.DocumentNumber,
	})
	if err != nil {
		return fail(err)
	}

	number, err := s.repo.NextTicketNumber(ctx)
	if err != nil {
		return fail(err)
	}

	ticket := &model.Ticket{
		TicketNumber:  number,
		SlotID:        slotID,
		VehicleID:     vehicle.ID,
		DriverID:      driver.ID,
		CashierID:     cashierID,
		CheckInTime:   time.Now().UTC(),
		PaymentStatus: "pending",
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return fail(err)
	}

	s.sink.Emit(ctx, audit.Event{
		ActorID:    cashierID,
		Action:     audit.ActionCheckIn,
		EntityType: "ticket",
		EntityID:   ticket.ID.String(),
		After: []audit.Field{
			{Key: "ticket_number", Value: ticket.TicketNumber},
			{Key: "slot", Value: slot.Number},
			{Key: "license_plate", Value: vehicle.LicensePlate},
			{Key: "payment_status", Value: "pending"},
		},
		Timestamp: time.Now().UTC(),
	})

	ticket.Slot = slot
	ticket.Vehicle = vehicle
	ticket.Driver = driver
	return ticketToResponse(ticket), nil
}

// ── CheckOut ──────────────────────────────────────────────────────────────────
// Settlement is one logical transaction: ticket update, payment insert and
// slot release all commit or none do — no intermediate state is observable.

func (s *ticketService) CheckOut(ctx context.Context, cashierID, ticketID uuid.UUID, req dto.CheckOutRequest) (*dto.ReceiptResponse, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if ticket.PaymentStatus != "pending" {
		return nil, ErrAlreadyPaid
	}
	if ticket.Slot == nil {
		return nil, ErrSlotNotFound
	}

	now := time.Now().UTC()
	elapsed := decimal.NewFromFloat(now.Sub(ticket.CheckInTime).Hours())
	if elapsed.IsNegative() {
		elapsed = decimal.Zero
	}
	billed := billableHours(elapsed)
	total := ticket.Slot.HourlyRate.Mul(decimal.NewFromInt(billed))
	duration := elapsed.Round(2)

	receiptNumber, err := s.payments.NextReceiptNumber(ctx)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		TicketID:        ticket.ID,
		Amount:          total,
		Method:          req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		CashierID:       cashierID,
		ReceiptNumber:   receiptNumber,
		PaymentDate:     now,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ticket.CheckOutTime = &now
		ticket.DurationHours = &duration
		ticket.TotalAmount = &total
		ticket.PaymentStatus = "paid"
		ticket.Notes = req.Notes

		if err := s.repo.UpdateTx(tx, ticket); err != nil {
			return err
		}
		if err := s.payments.CreateTx(tx, payment); err != nil {
			return err
		}
		return s.slotRepo.ReleaseTx(tx, ticket.SlotID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.sink.Emit(ctx, audit.Event{
		ActorID:    cashierID,
		Action:     audit.ActionCheckOut,
		EntityType: "ticket",
		EntityID:   ticket.ID.String(),
		Before: []audit.Field{
			{Key: "payment_status", Value: "pending"},
		},
		After: []audit.Field{
			{Key: "payment_status", Value: "paid"},
			{Key: "receipt_number", Value: receiptNumber},
			{Key: "total_amount", Value: total.StringFixed(2)},
			{Key: "duration_hours", Value: duration.StringFixed(2)},
		},
		Timestamp: now,
	})

	driverName := ""
	if ticket.Driver != nil {
		driverName = ticket.Driver.Name
	}
	plate := ""
	if ticket.Vehicle != nil {
		plate = ticket.Vehicle.LicensePlate
	}
	cashierName := ""
	if ticket.Cashier != nil {
		cashierName = ticket.Cashier.Name
	}

	return &dto.ReceiptResponse{
		TicketNumber:  ticket.TicketNumber,
		ReceiptNumber: receiptNumber,
		SlotNumber:    ticket.Slot.Number,
		LicensePlate:  plate,
		DriverName:    driverName,
		CashierName:   cashierName,
		CheckInTime:   ticket.CheckInTime.Format(time.RFC3339),
		CheckOutTime:  now.Format(time.RFC3339),
		DurationHours: duration,
		BilledHours:   billed,
		HourlyRate:    ticket.Slot.HourlyRate,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
	}, nil
}

// ── Void ──────────────────────────────────────────────────────────────────────
// Terminal cancel from OPEN only: frees the slot, bills nothing.

func (s *ticketService) Void(ctx context.Context, actorID, ticketID uuid.UUID, reason string) error {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		return err
	}
	if ticket.PaymentStatus != "pending" {
		return ErrAlreadyPaid
	}

	now := time.Now().UTC()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ticket.CheckOutTime = &now
		ticket.PaymentStatus = "cancelled"
		ticket.Notes = &reason
		if err := s.repo.UpdateTx(tx, ticket); err != nil {
			return err
		}
		return s.slotRepo.ReleaseTx(tx, ticket.SlotID)
	})
	if txErr != nil {
		return txErr
	}

	s.sink.Emit(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionTicketVoid,
		EntityType: "ticket",
		EntityID:   ticket.ID.String(),
		Before:     []audit.Field{{Key: "payment_status", Value: "pending"}},
		After: []audit.Field{
			{Key: "payment_status", Value: "cancelled"},
			{Key: "reason", Value: reason},
		},
		Timestamp: now,
	})
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *ticketService) Get(ctx context.Context, ticketID uuid.UUID) (*dto.TicketResponse, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return ticketToResponse(ticket), nil
}

func (s *ticketService) Search(ctx context.Context, query string) ([]dto.TicketResponse, error) {
	tickets, err := s.repo.Search(ctx, query, 50)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, *ticketToResponse(&tickets[i]))
	}
	return out, nil
}

// List returns a paginated list of tickets, filtered by date and status.
// Default filter: today's tickets, any status.
func (s *ticketService) List(ctx context.Context, filter dto.TicketFilter) (*dto.TicketListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	tickets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, *ticketToResponse(&tickets[i]))
	}
	return &dto.TicketListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *ticketService) ReceiptPDF(ctx context.Context, ticketID uuid.UUID) (string, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTicketNotFound
		}
		return "", err
	}
	if ticket.PaymentStatus != "paid" {
		return "", ErrAlreadyPaid
	}
	if ticket.Payment == nil {
		// Settled ticket without a payment row: the repair path must run
		// before a receipt can be produced.
		return "", ErrPaymentRecordMissing
	}
	return infra.GenerateReceiptPDF(ticket, s.facilityName, s.pdfStoragePath)
}

func (s *ticketService) EmailReceipt(ctx context.Context, ticketID uuid.UUID, toEmail string) error {
	if s.emails == nil {
		return ErrEmailUnavailable
	}
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		return err
	}
	if ticket.PaymentStatus != "paid" {
		return ErrAlreadyPaid
	}
	if ticket.Payment == nil {
		return ErrPaymentRecordMissing
	}
	path, err := infra.GenerateReceiptPDF(ticket, s.facilityName, s.pdfStoragePath)
	if err != nil {
		return err
	}
	return s.emails.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: toEmail,
		Subject: fmt.Sprintf("%s — receipt %s", s.facilityName, ticket.Payment.ReceiptNumber),
		Body: fmt.Sprintf("Your parking receipt %s for ticket %s is attached.",
			ticket.Payment.ReceiptNumber, ticket.TicketNumber),
		PDFPath: path,
	})
}

func ticketToResponse(t *model.Ticket) *dto.TicketResponse {
	resp := &dto.TicketResponse{
		ID:            t.ID.String(),
		TicketNumber:  t.TicketNumber,
		SlotID:        t.SlotID.String(),
		CashierID:     t.CashierID.String(),
		CheckInTime:   t.CheckInTime.Format(time.RFC3339),
		DurationHours: t.DurationHours,
		TotalAmount:   t.TotalAmount,
		PaymentStatus: t.PaymentStatus,
	}
	if t.Slot != nil {
		resp.SlotNumber = t.Slot.Number
	}
	if t.Vehicle != nil {
		resp.LicensePlate = t.Vehicle.LicensePlate
	}
	if t.Driver != nil {
		resp.DriverName = t.Driver.Name
	}
	if t.CheckOutTime != nil {
		out := t.CheckOutTime.Format(time.RFC3339)
		resp.CheckOutTime = &out
	}
	return resp
}
