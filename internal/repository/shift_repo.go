package repository

import (
	"context"
	"time"

	"parkgate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShiftRepository interface {
	Create(ctx context.Context, s *model.Shift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	FindOpenByCashierAndDate(ctx context.Context, cashierID uuid.UUID, date time.Time) (*model.Shift, error)
	Update(ctx context.Context, s *model.Shift) error
	List(ctx context.Context, page, limit int) ([]model.Shift, int64, error)
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Preload("Cashier").First(&s, id).Error
	return &s, err
}

func (r *shiftRepo) FindOpenByCashierAndDate(ctx context.Context, cashierID uuid.UUID, date time.Time) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND shift_date = ? AND status = 'open'", cashierID, date.Format("2006-01-02")).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) Update(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *shiftRepo) List(ctx context.Context, page, limit int) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Shift{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Cashier").
		Order("open_time DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&shifts).Error
	return shifts, total, err
}
