package repository

import (
	"context"

	"gorm.io/gorm"

	"campdesk/internal/model"
)

// AuditLogRepository accommodation audit trail (append only)
type AuditLogRepository interface {
	BatchCreate(ctx context.Context, logs []model.AuditLog) error
	ListByRegistration(ctx context.Context, registrationID string, offset, limit int) ([]model.AuditLog, int64, error)
}

type auditLogRepo struct {
	db *gorm.DB
}

func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) BatchCreate(ctx context.Context, logs []model.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&logs).Error
}

func (r *auditLogRepo) ListByRegistration(ctx context.Context, registrationID string, offset, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AuditLog{}).
		Where("registration_id = ?", registrationID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC, log_id DESC").
		Find(&logs).Error
	return logs, total, err
}
