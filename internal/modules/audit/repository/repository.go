package repository

import (
	"context"

	"fedlearn.dev/dashboard/internal/entity"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]entity.AuditEntry, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]entity.AuditEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.AuditEntry{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []entity.AuditEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, total, err
}
