package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"license-key-service/internal/model"

	"gorm.io/gorm"
)

const usageHistoryLimit = 20

// AuditService stores the operator action log and the public usage trail.
type AuditService struct {
	db  *gorm.DB
	Now func() time.Time
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db, Now: time.Now}
}

func (s *AuditService) LogOperation(ctx context.Context, actor, action, target, targetID string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	entry := &model.OperationLog{
		Actor:     actor,
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Details:   string(detailsJSON),
		CreatedAt: s.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// GetOperationLogs returns one page of the operation log, newest first.
func (s *AuditService) GetOperationLogs(ctx context.Context, page, pageSize int) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	db := s.db.WithContext(ctx)
	if err := db.Model(&model.OperationLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (s *AuditService) RecordUsage(ctx context.Context, usage *model.LicenseUsage) error {
	if usage.Timestamp.IsZero() {
		usage.Timestamp = s.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(usage).Error; err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Usage returns the most recent public calls made with key.
func (s *AuditService) Usage(ctx context.Context, key string) ([]model.LicenseUsage, error) {
	usages := make([]model.LicenseUsage, 0)
	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		Order("timestamp DESC, id DESC").
		Limit(usageHistoryLimit).
		Find(&usages).Error
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	return usages, nil
}
