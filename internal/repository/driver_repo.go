package repository

import (
	"context"
	"errors"

	"parkgate/internal/model"

	"gorm.io/gorm"
)

type DriverRepository interface {
	// Upsert matches by document number when present; drivers without a
	// document get a fresh record per stay.
	Upsert(ctx context.Context, d *model.Driver) (*model.Driver, error)
}

type driverRepo struct{ db *gorm.DB }

func NewDriverRepository(db *gorm.DB) DriverRepository { return &driverRepo{db: db} }

func (r *driverRepo) Upsert(ctx context.Context, d *model.Driver) (*model.Driver, error) {
	if d.DocumentNumber == nil || *d.DocumentNumber == "" {
		if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
			return nil, err
		}
		return d, nil
	}

	var existing model.Driver
	err := r.db.WithContext(ctx).Where("document_number = ?", *d.DocumentNumber).First(&existing).Error
	switch {
	case err == nil:
		existing.Name = d.Name
		if d.Phone != nil {
			existing.Phone = d.Phone
		}
		if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, err
	}
}
