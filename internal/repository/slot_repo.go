package repository

import (
	"context"

	"parkgate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotRepository interface {
	Create(ctx context.Context, s *model.Slot) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	FindByNumber(ctx context.Context, number string) (*model.Slot, error)
	List(ctx context.Context, status string) ([]model.Slot, error)
	Update(ctx context.Context, s *model.Slot) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	// Reserve flips vacant → occupied in a single conditional UPDATE and
	// reports whether this caller won the slot. Two concurrent reservations
	// on one slot can never both see true.
	Reserve(ctx context.Context, id uuid.UUID) (bool, error)
	// Release flips occupied → vacant; releasing a slot that is not occupied
	// is a no-op.
	Release(ctx context.Context, id uuid.UUID) error
	ReleaseTx(tx *gorm.DB, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type slotRepo struct{ db *gorm.DB }

func NewSlotRepository(db *gorm.DB) SlotRepository { return &slotRepo{db: db} }

func (r *slotRepo) Create(ctx context.Context, s *model.Slot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *slotRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var s model.Slot
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *slotRepo) FindByNumber(ctx context.Context, number string) (*model.Slot, error) {
	var s model.Slot
	err := r.db.WithContext(ctx).Where("number = ?", number).First(&s).Error
	return &s, err
}

func (r *slotRepo) List(ctx context.Context, status string) ([]model.Slot, error) {
	var slots []model.Slot
	q := r.db.WithContext(ctx).Where("active = true")
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("number ASC").Find(&slots).Error
	return slots, err
}

func (r *slotRepo) Update(ctx context.Context, s *model.Slot) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *slotRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Slot{}).Where("id = ?", id).Update("status", status).Error
}

func (r *slotRepo) Reserve(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Slot{}).
		Where("id = ? AND status = 'vacant'", id).
		Update("status", "occupied")
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *slotRepo) Release(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Slot{}).
		Where("id = ? AND status = 'occupied'", id).
		Update("status", "vacant").Error
}

func (r *slotRepo) ReleaseTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.Slot{}).
		Where("id = ? AND status = 'occupied'", id).
		Update("status", "vacant").Error
}

func (r *slotRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type bucket struct {
		Status string
		N      int64
	}
	var rows []bucket
	err := r.db.WithContext(ctx).Model(&model.Slot{}).
		Select("status, COUNT(*) AS n").
		Where("active = true").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, b := range rows {
		counts[b.Status] = b.N
	}
	return counts, nil
}
