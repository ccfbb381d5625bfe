package tests

import (
	"context"
	"testing"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/model"
	"parkgate/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type paymentFixture struct {
	svc      service.PaymentService
	tickets  *stubTicketRepo
	payments *stubPaymentRepo
	sink     *recordSink
}

func newPaymentFixture() *paymentFixture {
	tickets := newStubTicketRepo()
	payments := newStubPaymentRepo()
	sink := &recordSink{}
	return &paymentFixture{
		svc:      service.NewPaymentService(payments, tickets, sink),
		tickets:  tickets,
		payments: payments,
		sink:     sink,
	}
}

// settledTicketWithoutPayment simulates the failure mode the repair path
// exists for: a ticket marked paid whose payment insert was lost.
func (f *paymentFixture) settledTicketWithoutPayment(t *testing.T, total *decimal.Decimal) *model.Ticket {
	t.Helper()
	now := time.Now().UTC()
	checkIn := now.Add(-90 * time.Minute)
	ticket := &model.Ticket{
		TicketNumber:  "T-000042",
		SlotID:        uuid.New(),
		VehicleID:     uuid.New(),
		DriverID:      uuid.New(),
		CashierID:     uuid.New(),
		CheckInTime:   checkIn,
		CheckOutTime:  &now,
		TotalAmount:   total,
		PaymentStatus: "paid",
		Slot: &model.Slot{
			Number:     "B-07",
			HourlyRate: decimal.RequireFromString("5.00"),
		},
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

func TestRecoverUsesStoredTotal(t *testing.T) {
	f := newPaymentFixture()
	total := decimal.RequireFromString("25.00")
	ticket := f.settledTicketWithoutPayment(t, &total)

	resp, err := f.svc.RecoverMissingPayment(context.Background(), uuid.New(), ticket.ID)
	require.NoError(t, err)

	assert.True(t, resp.Amount.Equal(total))
	assert.True(t, resp.Recovered)
	assert.Equal(t, "cash", resp.Method)
	require.NotNil(t, resp.ReferenceNumber)
	assert.Equal(t, "RECOVERY", *resp.ReferenceNumber)
	assert.Len(t, f.sink.byAction(audit.ActionPaymentRecovered), 1)
}

func TestRecoverRecomputesFromTimestamps(t *testing.T) {
	// No stored total: 90 minutes at $5.00/h bills 2 hours = $10.00.
	f := newPaymentFixture()
	ticket := f.settledTicketWithoutPayment(t, nil)

	resp, err := f.svc.RecoverMissingPayment(context.Background(), uuid.New(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, resp.Amount.Equal(decimal.RequireFromString("10.00")), "got %s", resp.Amount)
}

func TestRecoverRejectsPendingTicket(t *testing.T) {
	f := newPaymentFixture()
	ticket := &model.Ticket{
		CashierID:     uuid.New(),
		CheckInTime:   time.Now().UTC(),
		PaymentStatus: "pending",
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	_, err := f.svc.RecoverMissingPayment(context.Background(), uuid.New(), ticket.ID)
	assert.ErrorIs(t, err, service.ErrPaymentUnrecoverable)
}

func TestRecoverRejectsWhenPaymentExists(t *testing.T) {
	f := newPaymentFixture()
	total := decimal.RequireFromString("25.00")
	ticket := f.settledTicketWithoutPayment(t, &total)
	ticket.Payment = &model.Payment{TicketID: ticket.ID, Amount: total}

	_, err := f.svc.RecoverMissingPayment(context.Background(), uuid.New(), ticket.ID)
	assert.ErrorIs(t, err, service.ErrPaymentAlreadyExists)
}

func TestRecoverIsIdempotentUnderRace(t *testing.T) {
	// Two recoveries where neither saw an existing payment: the second
	// insert hits the unique index and maps to ErrPaymentAlreadyExists.
	f := newPaymentFixture()
	total := decimal.RequireFromString("25.00")
	ticket := f.settledTicketWithoutPayment(t, &total)

	_, err := f.svc.RecoverMissingPayment(context.Background(), uuid.New(), ticket.ID)
	require.NoError(t, err)

	// The stub ticket still reports no payment, like a stale read.
	_, err = f.svc.RecoverMissingPayment(context.Background(), uuid.New(), ticket.ID)
	assert.ErrorIs(t, err, service.ErrPaymentAlreadyExists)
}

func TestRecoverUnrecoverableWithoutTimestampsOrTotal(t *testing.T) {
	f := newPaymentFixture()
	ticket := &model.Ticket{
		CashierID:     uuid.New(),
		CheckInTime:   time.Now().UTC(),
		PaymentStatus: "paid", // paid but no checkout stamp, no amount, no slot
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	_, err := f.svc.RecoverMissingPayment(context.Background(), uuid.New(), ticket.ID)
	assert.ErrorIs(t, err, service.ErrPaymentUnrecoverable)
}

func TestGetByTicketMissingPayment(t *testing.T) {
	f := newPaymentFixture()
	_, err := f.svc.GetByTicket(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrPaymentRecordMissing)
}

func TestRecoverUnknownTicket(t *testing.T) {
	f := newPaymentFixture()
	_, err := f.svc.RecoverMissingPayment(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, service.ErrTicketNotFound)
}

// Guard that the stub reproduces the database's duplicate-key contract the
// recovery path depends on.
func TestStubPaymentRepoEnforcesUniqueTicket(t *testing.T) {
	payments := newStubPaymentRepo()
	ticketID := uuid.New()

	require.NoError(t, payments.Create(context.Background(), &model.Payment{
		TicketID: ticketID, Amount: decimal.NewFromInt(5), Method: "cash", ReceiptNumber: "R-00000001",
	}))
	err := payments.Create(context.Background(), &model.Payment{
		TicketID: ticketID, Amount: decimal.NewFromInt(5), Method: "cash", ReceiptNumber: "R-00000002",
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
