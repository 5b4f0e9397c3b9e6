package repository

import (
	"context"
	"encoding/json"

	"codexai-go/internal/model"
	"codexai-go/pkg/log"

	"gorm.io/gorm"
)

// AuditRepository records the access trail for sensitive operations.
// Writes are best-effort: an audit failure is logged, never surfaced to
// the user-facing request.
type AuditRepository interface {
	Log(ctx context.Context, userID uint, action string, resourceID *uint, resourceType string, details map[string]interface{})
	FindByUserID(ctx context.Context, userID uint, limit int) ([]*model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates an AuditRepository backed by gorm.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, userID uint, action string, resourceID *uint, resourceType string, details map[string]interface{}) {
	var detailsJSON string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	entry := &model.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Details:      detailsJSON,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Errorf("failed to write audit log (action=%s, userID=%d): %v", action, userID, err)
	}
}

func (r *auditRepository) FindByUserID(ctx context.Context, userID uint, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []*model.AuditLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
