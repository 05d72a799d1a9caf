package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"license-key-service/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApplicationUpdate is a partial patch; nil fields are left unchanged.
type ApplicationUpdate struct {
	Name *string
}

// ApplicationService is the registry of applications keys are issued for.
type ApplicationService struct {
	db  *gorm.DB
	log *zap.Logger
	Now func() time.Time
}

func NewApplicationService(db *gorm.DB, log *zap.Logger) *ApplicationService {
	return &ApplicationService{db: db, log: log, Now: time.Now}
}

func (s *ApplicationService) Create(ctx context.Context, name string) (*model.Application, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}

	app := &model.Application{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.log.Info("application created", zap.String("application_id", app.ID))
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("application", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &app, nil
}

// List returns every application in insertion order.
func (s *ApplicationService) List(ctx context.Context) ([]model.Application, error) {
	apps := make([]model.Application, 0)
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *ApplicationService) Update(ctx context.Context, id string, upd ApplicationUpdate) error {
	updates := map[string]interface{}{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		updates["name"] = name
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app model.Application
		err := tx.Where("id = ?", id).First(&app).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("application", id)
		}
		if err != nil {
			return fmt.Errorf("get application: %w", err)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&app).Updates(updates).Error; err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		return nil
	})
}

// Delete removes the application and every key issued for it in one
// transaction. Deleting an unknown id is a no-op.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	var removedKeys int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("application_id = ?", id).Delete(&model.LicenseKey{})
		if res.Error != nil {
			return fmt.Errorf("delete application keys: %w", res.Error)
		}
		removedKeys = res.RowsAffected

		if err := tx.Where("id = ?", id).Delete(&model.Application{}).Error; err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("application deleted",
		zap.String("application_id", id),
		zap.Int64("keys_removed", removedKeys),
	)
	return nil
}

// exists runs on db so callers can check inside their own transaction.
func (s *ApplicationService) exists(db *gorm.DB, id string) (bool, error) {
	var count int64
	if err := db.Model(&model.Application{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check application: %w", err)
	}
	return count > 0, nil
}
