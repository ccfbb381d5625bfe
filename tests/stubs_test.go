package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/dto"
	"parkgate/internal/model"
	"parkgate/internal/repository"
	"parkgate/internal/service"
	"parkgate/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", s, err)
	}
	return id
}

// ── Audit sink ────────────────────────────────────────────────────────────────

// recordSink captures emitted events for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordSink) Emit(_ context.Context, ev audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordSink) byAction(action string) []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Event
	for _, ev := range s.events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}

var _ audit.Sink = (*recordSink)(nil)

// ── Email dispatcher ──────────────────────────────────────────────────────────

// recordEmailDispatcher captures enqueued email jobs for assertions.
type recordEmailDispatcher struct {
	mu   sync.Mutex
	jobs []worker.EmailJobPayload
}

func (d *recordEmailDispatcher) EnqueueEmail(_ context.Context, payload interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, payload.(worker.EmailJobPayload))
	return nil
}

var _ service.EmailDispatcher = (*recordEmailDispatcher)(nil)

// ── Slot repository ───────────────────────────────────────────────────────────

type stubSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*model.Slot
}

func newStubSlotRepo() *stubSlotRepo {
	return &stubSlotRepo{slots: make(map[uuid.UUID]*model.Slot)}
}

func (r *stubSlotRepo) add(s *model.Slot) *model.Slot {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = "vacant"
	}
	r.slots[s.ID] = s
	return s
}

func (r *stubSlotRepo) Create(_ context.Context, s *model.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(s)
	return nil
}

func (r *stubSlotRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSlotRepo) FindByNumber(_ context.Context, number string) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.Number == number {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSlotRepo) List(_ context.Context, status string) ([]model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Slot
	for _, s := range r.slots {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSlotRepo) Update(_ context.Context, s *model.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[s.ID] = s
	return nil
}

func (r *stubSlotRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (r *stubSlotRepo) Reserve(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok || s.Status != "vacant" {
		return false, nil
	}
	s.Status = "occupied"
	return true, nil
}

func (r *stubSlotRepo) Release(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[id]; ok && s.Status == "occupied" {
		s.Status = "vacant"
	}
	return nil
}

func (r *stubSlotRepo) ReleaseTx(_ *gorm.DB, id uuid.UUID) error {
	return r.Release(context.Background(), id)
}

func (r *stubSlotRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, s := range r.slots {
		if s.Active {
			counts[s.Status]++
		}
	}
	return counts, nil
}

func (r *stubSlotRepo) status(id uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[id].Status
}

var _ repository.SlotRepository = (*stubSlotRepo)(nil)

// ── Ticket repository ─────────────────────────────────────────────────────────

type stubTicketRepo struct {
	mu        sync.Mutex
	tickets   map[uuid.UUID]*model.Ticket
	seq       int
	createErr error
}

func newStubTicketRepo() *stubTicketRepo {
	return &stubTicketRepo{tickets: make(map[uuid.UUID]*model.Ticket)}
}

func (r *stubTicketRepo) Create(_ context.Context, t *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tickets[t.ID] = t
	return nil
}

func (r *stubTicketRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubTicketRepo) FindOpenBySlot(_ context.Context, slotID uuid.UUID) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.SlotID == slotID && t.CheckOutTime == nil && t.PaymentStatus == "pending" {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTicketRepo) UpdateTx(_ *gorm.DB, t *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = t
	return nil
}

func (r *stubTicketRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.PaymentStatus = status
	return nil
}

func (r *stubTicketRepo) NextTicketNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("T-%06d", r.seq), nil
}

func (r *stubTicketRepo) Search(_ context.Context, _ string, _ int) ([]model.Ticket, error) {
	return nil, nil
}

func (r *stubTicketRepo) List(_ context.Context, _ dto.TicketFilter) ([]model.Ticket, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Ticket
	for _, t := range r.tickets {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *stubTicketRepo) CountByCashierAndDate(_ context.Context, cashierID uuid.UUID, _ string) (total, paid, pending int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.CashierID != cashierID {
			continue
		}
		total++
		switch t.PaymentStatus {
		case "paid":
			paid++
		case "pending":
			pending++
		}
	}
	return
}

func (r *stubTicketRepo) DB() *gorm.DB { return nil }

var _ repository.TicketRepository = (*stubTicketRepo)(nil)

// ── Payment repository ────────────────────────────────────────────────────────

type stubPaymentRepo struct {
	mu        sync.Mutex
	payments  map[uuid.UUID]*model.Payment // keyed by ticket ID
	seq       int
	collected decimal.Decimal
	createErr error
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *stubPaymentRepo) Create(_ context.Context, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.payments[p.TicketID]; exists {
		return gorm.ErrDuplicatedKey
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments[p.TicketID] = p
	return nil
}

func (r *stubPaymentRepo) CreateTx(_ *gorm.DB, p *model.Payment) error {
	return r.Create(context.Background(), p)
}

func (r *stubPaymentRepo) FindByTicketID(_ context.Context, ticketID uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[ticketID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPaymentRepo) NextReceiptNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("R-%08d", r.seq), nil
}

func (r *stubPaymentRepo) TotalCollectedByTicketCashier(_ context.Context, _ uuid.UUID, _ string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collected, nil
}

func (r *stubPaymentRepo) DB() *gorm.DB { return nil }

var _ repository.PaymentRepository = (*stubPaymentRepo)(nil)

// ── Shift repository ──────────────────────────────────────────────────────────

type stubShiftRepo struct {
	mu     sync.Mutex
	shifts map[uuid.UUID]*model.Shift
}

func newStubShiftRepo() *stubShiftRepo {
	return &stubShiftRepo{shifts: make(map[uuid.UUID]*model.Shift)}
}

func (r *stubShiftRepo) Create(_ context.Context, s *model.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shifts {
		if existing.CashierID == s.CashierID && existing.Status == "open" &&
			existing.ShiftDate.Equal(s.ShiftDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.shifts[s.ID] = s
	return nil
}

func (r *stubShiftRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubShiftRepo) FindOpenByCashierAndDate(_ context.Context, cashierID uuid.UUID, _ time.Time) (*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.CashierID == cashierID && s.Status == "open" {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubShiftRepo) Update(_ context.Context, s *model.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts[s.ID] = s
	return nil
}

func (r *stubShiftRepo) List(_ context.Context, _, _ int) ([]model.Shift, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Shift
	for _, s := range r.shifts {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

var _ repository.ShiftRepository = (*stubShiftRepo)(nil)

// ── Vehicle / driver repositories ─────────────────────────────────────────────

type stubVehicleRepo struct {
	mu        sync.Mutex
	byPlate   map[string]*model.Vehicle
	upsertErr error
}

func newStubVehicleRepo() *stubVehicleRepo {
	return &stubVehicleRepo{byPlate: make(map[string]*model.Vehicle)}
}

func (r *stubVehicleRepo) UpsertByPlate(_ context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	if existing, ok := r.byPlate[v.LicensePlate]; ok {
		existing.Type = v.Type
		existing.Make = v.Make
		existing.Color = v.Color
		return existing, nil
	}
	v.ID = uuid.New()
	r.byPlate[v.LicensePlate] = v
	return v, nil
}

func (r *stubVehicleRepo) FindByPlate(_ context.Context, plate string) (*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byPlate[plate]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

var _ repository.VehicleRepository = (*stubVehicleRepo)(nil)

type stubDriverRepo struct {
	mu    sync.Mutex
	byDoc map[string]*model.Driver
}

func newStubDriverRepo() *stubDriverRepo {
	return &stubDriverRepo{byDoc: make(map[string]*model.Driver)}
}

func (r *stubDriverRepo) Upsert(_ context.Context, d *model.Driver) (*model.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.DocumentNumber != nil && *d.DocumentNumber != "" {
		if existing, ok := r.byDoc[*d.DocumentNumber]; ok {
			existing.Name = d.Name
			existing.Phone = d.Phone
			return existing, nil
		}
	}
	d.ID = uuid.New()
	if d.DocumentNumber != nil && *d.DocumentNumber != "" {
		r.byDoc[*d.DocumentNumber] = d
	}
	return d, nil
}

var _ repository.DriverRepository = (*stubDriverRepo)(nil)

// ── User repository ───────────────────────────────────────────────────────────

type stubUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Active && (u.Username == username || (u.Email != nil && *u.Email == username)) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)
