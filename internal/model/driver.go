package model

import (
	"time"

	"github.com/google/uuid"
)

// Driver is upserted at check-in by document number when one is supplied,
// otherwise a fresh record is created per stay.
type Driver struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string    `gorm:"not null"`
	Phone          *string   `gorm:"type:varchar(30)"`
	DocumentNumber *string   `gorm:"type:varchar(40);index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
