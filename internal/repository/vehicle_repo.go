package repository

import (
	"context"
	"errors"

	"parkgate/internal/model"

	"gorm.io/gorm"
)

type VehicleRepository interface {
	// UpsertByPlate finds the vehicle by its license plate and refreshes the
	// descriptive fields, or creates it.
	UpsertByPlate(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
}

type vehicleRepo struct{ db *gorm.DB }

func NewVehicleRepository(db *gorm.DB) VehicleRepository { return &vehicleRepo{db: db} }

func (r *vehicleRepo) UpsertByPlate(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	var existing model.Vehicle
	err := r.db.WithContext(ctx).Where("license_plate = ?", v.LicensePlate).First(&existing).Error
	switch {
	case err == nil:
		existing.Type = v.Type
		if v.Make != nil {
			existing.Make = v.Make
		}
		if v.Color != nil {
			existing.Color = v.Color
		}
		if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, err
	}
}

func (r *vehicleRepo) FindByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.WithContext(ctx).Where("license_plate = ?", plate).First(&v).Error
	return &v, err
}
