package model

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is upserted by natural key (license plate) at check-in.
// Type: "car" | "motorcycle" | "truck" | "van"
type Vehicle struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LicensePlate string    `gorm:"uniqueIndex;not null"`
	Type         string    `gorm:"type:varchar(20);not null;default:'car'"`
	Make         *string
	Color        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
