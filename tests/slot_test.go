package tests

import (
	"context"
	"testing"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/dto"
	"parkgate/internal/model"
	"parkgate/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotFixture struct {
	svc     service.SlotService
	slots   *stubSlotRepo
	tickets *stubTicketRepo
	sink    *recordSink
}

func newSlotFixture() *slotFixture {
	slots := newStubSlotRepo()
	tickets := newStubTicketRepo()
	sink := &recordSink{}
	return &slotFixture{
		svc:     service.NewSlotService(slots, tickets, sink),
		slots:   slots,
		tickets: tickets,
		sink:    sink,
	}
}

func (f *slotFixture) slot(number, status string) *model.Slot {
	return f.slots.add(&model.Slot{
		Number:     number,
		Status:     status,
		Type:       "standard",
		HourlyRate: decimal.NewFromInt(5),
		Active:     true,
	})
}

func TestReserveVacantSlot(t *testing.T) {
	f := newSlotFixture()
	slot := f.slot("A-01", "vacant")

	got, err := f.svc.Reserve(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "occupied", got.Status)
	assert.Equal(t, "occupied", f.slots.status(slot.ID))
}

func TestReserveNonVacantSlot(t *testing.T) {
	f := newSlotFixture()
	for _, status := range []string{"occupied", "reserved", "out_of_service"} {
		slot := f.slot("S-"+status, status)
		_, err := f.svc.Reserve(context.Background(), slot.ID)
		assert.ErrorIs(t, err, service.ErrSlotUnavailable, "status %s", status)
	}
}

func TestReserveUnknownSlot(t *testing.T) {
	f := newSlotFixture()
	_, err := f.svc.Reserve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrSlotNotFound)
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newSlotFixture()
	slot := f.slot("A-01", "occupied")

	require.NoError(t, f.svc.Release(context.Background(), slot.ID))
	assert.Equal(t, "vacant", f.slots.status(slot.ID))

	// A second release leaves the slot vacant.
	require.NoError(t, f.svc.Release(context.Background(), slot.ID))
	assert.Equal(t, "vacant", f.slots.status(slot.ID))
}

func TestSetStatusRefusedWhileTicketOpen(t *testing.T) {
	f := newSlotFixture()
	slot := f.slot("A-01", "occupied")
	require.NoError(t, f.tickets.Create(context.Background(), &model.Ticket{
		SlotID:        slot.ID,
		CashierID:     uuid.New(),
		CheckInTime:   time.Now().UTC(),
		PaymentStatus: "pending",
	}))

	err := f.svc.SetStatus(context.Background(), uuid.New(), slot.ID, "out_of_service")
	assert.ErrorIs(t, err, service.ErrSlotOccupied)
	assert.Equal(t, "occupied", f.slots.status(slot.ID))
}

func TestSetStatusOverrideEmitsAudit(t *testing.T) {
	f := newSlotFixture()
	slot := f.slot("A-01", "vacant")
	actor := uuid.New()

	require.NoError(t, f.svc.SetStatus(context.Background(), actor, slot.ID, "out_of_service"))
	assert.Equal(t, "out_of_service", f.slots.status(slot.ID))

	events := f.sink.byAction(audit.ActionSlotStatus)
	require.Len(t, events, 1)
	assert.Equal(t, actor, events[0].ActorID)
	assert.Contains(t, events[0].Before, audit.Field{Key: "status", Value: "vacant"})
	assert.Contains(t, events[0].After, audit.Field{Key: "status", Value: "out_of_service"})
}

func TestOccupancyCountsActiveSlots(t *testing.T) {
	f := newSlotFixture()
	f.slot("A-01", "vacant")
	f.slot("A-02", "vacant")
	f.slot("A-03", "occupied")
	f.slot("A-04", "reserved")
	f.slot("A-05", "out_of_service")
	inactive := f.slot("A-06", "vacant")
	inactive.Active = false

	resp, err := f.svc.Occupancy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 2, resp.Vacant)
	assert.Equal(t, 1, resp.Occupied)
	assert.Equal(t, 1, resp.Reserved)
	assert.Equal(t, 1, resp.OutOfService)
}

func TestCreateSlot(t *testing.T) {
	f := newSlotFixture()

	resp, err := f.svc.Create(context.Background(), dto.CreateSlotRequest{
		Number:     "C-11",
		Type:       "compact",
		HourlyRate: decimal.RequireFromString("3.50"),
		DailyRate:  decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "vacant", resp.Status)
	assert.True(t, resp.Active)
}
