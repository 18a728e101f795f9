package services

import (
	"context"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/pkg/logger"
	"gorm.io/gorm"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, details, ip, userAgent string) error {
	logEntry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	return s.db.WithContext(ctx).Create(logEntry).Error
}

// Record logs an audit entry without request metadata. Failures are
// logged and swallowed so the audit trail never fails the operation.
func (s *AuditService) Record(ctx context.Context, userID uint, action, entity string, entityID uint, details string) {
	if err := s.Log(ctx, userID, action, entity, entityID, details, "", ""); err != nil {
		logger.Error("failed to write audit log", "entity", entity, "entity_id", entityID, "error", err)
	}
}

// List retrieves audit logs newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := s.db.WithContext(ctx).Preload("User").Order("created_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}
