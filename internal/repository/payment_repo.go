package repository

import (
	"context"
	"fmt"

	"parkgate/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	CreateTx(tx *gorm.DB, p *model.Payment) error
	FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Payment, error)
	NextReceiptNumber(ctx context.Context) (string, error)
	// TotalCollectedByTicketCashier sums payments received on the given date
	// for tickets opened by the cashier. The join goes through the ticket's
	// cashier, not the payment's, matching how shifts were always reconciled.
	TotalCollectedByTicketCashier(ctx context.Context, cashierID uuid.UUID, date string) (decimal.Decimal, error)
	DB() *gorm.DB
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) DB() *gorm.DB { return r.db }

func (r *paymentRepo) Create(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).First(&p).Error
	return &p, err
}

func (r *paymentRepo) NextReceiptNumber(ctx context.Context) (string, error) {
	var num int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('payments_receipt_number_seq')").Scan(&num).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("R-%08d", num), nil
}

func (r *paymentRepo) TotalCollectedByTicketCashier(ctx context.Context, cashierID uuid.UUID, date string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Select("COALESCE(SUM(payments.amount), 0)").
		Joins("JOIN tickets ON tickets.id = payments.ticket_id").
		Where("tickets.cashier_id = ? AND DATE(payments.payment_date) = ?", cashierID, date).
		Scan(&total).Error
	return total, err
}
