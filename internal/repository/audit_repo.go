package repository

import (
	"context"

	"parkgate/internal/model"

	"gorm.io/gorm"
)

// AuditRepository persists audit records. Only the worker pool writes here.
type AuditRepository interface {
	Create(ctx context.Context, rec *model.AuditRecord) error
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, rec *model.AuditRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}
