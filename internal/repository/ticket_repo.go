package repository

import (
	"context"
	"fmt"

	"parkgate/internal/dto"
	"parkgate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketRepository interface {
	Create(ctx context.Context, t *model.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	FindOpenBySlot(ctx context.Context, slotID uuid.UUID) (*model.Ticket, error)
	UpdateTx(tx *gorm.DB, t *model.Ticket) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	NextTicketNumber(ctx context.Context) (string, error)
	Search(ctx context.Context, query string, limit int) ([]model.Ticket, error)
	List(ctx context.Context, filter dto.TicketFilter) ([]model.Ticket, int64, error)
	CountByCashierAndDate(ctx context.Context, cashierID uuid.UUID, date string) (total, paid, pending int64, err error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ticketRepo struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository { return &ticketRepo{db: db} }

func (r *ticketRepo) DB() *gorm.DB { return r.db }

func (r *ticketRepo) Create(ctx context.Context, t *model.Ticket) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ticketRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Slot").Preload("Vehicle").Preload("Driver").
		Preload("Cashier").Preload("Payment").
		First(&t, id).Error
	return &t, err
}

func (r *ticketRepo) FindOpenBySlot(ctx context.Context, slotID uuid.UUID) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).
		Where("slot_id = ? AND check_out_time IS NULL AND payment_status = 'pending'", slotID).
		First(&t).Error
	return &t, err
}

func (r *ticketRepo) UpdateTx(tx *gorm.DB, t *model.Ticket) error {
	return tx.Save(t).Error
}

func (r *ticketRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ?", id).Update("payment_status", status).Error
}

func (r *ticketRepo) NextTicketNumber(ctx context.Context) (string, error) {
	// PostgreSQL sequence — unique across the system's lifetime.
	var num int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('tickets_ticket_number_seq')").Scan(&num).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("T-%06d", num), nil
}

func (r *ticketRepo) Search(ctx context.Context, query string, limit int) ([]model.Ticket, error) {
	var tickets []model.Ticket
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Joins("JOIN vehicles ON vehicles.id = tickets.vehicle_id").
		Where("tickets.ticket_number ILIKE ? OR vehicles.license_plate ILIKE ?", pattern, pattern).
		Preload("Slot").Preload("Vehicle").Preload("Driver").
		Order("tickets.check_in_time DESC").
		Limit(limit).
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepo) List(ctx context.Context, filter dto.TicketFilter) ([]model.Ticket, int64, error) {
	var tickets []model.Ticket
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Ticket{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("payment_status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(check_in_time) = ?", filter.Date)
	} else {
		// Default: today
		q = q.Where("DATE(check_in_time) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Slot").Preload("Vehicle").Preload("Driver").
		Order("check_in_time DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&tickets).Error

	return tickets, total, err
}

func (r *ticketRepo) CountByCashierAndDate(ctx context.Context, cashierID uuid.UUID, date string) (total, paid, pending int64, err error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Ticket{}).
			Where("cashier_id = ? AND DATE(check_in_time) = ?", cashierID, date)
	}
	if err = base().Count(&total).Error; err != nil {
		return
	}
	if err = base().Where("payment_status = 'paid'").Count(&paid).Error; err != nil {
		return
	}
	err = base().Where("payment_status = 'pending'").Count(&pending).Error
	return
}
