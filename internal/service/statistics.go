package service

import (
	"context"
	"fmt"

	"license-key-service/internal/model"
)

// Statistics summarises the key population. Expiry is derived from the clock
// and is never read from a stored status.
func (s *LicenseService) Statistics(ctx context.Context) (*model.KeyStatistics, error) {
	db := s.db.WithContext(ctx)
	now := s.Now()

	stats := &model.KeyStatistics{KeysByApp: make(map[string]int64)}

	var byStatus []struct {
		Status model.Status
		Count  int64
	}
	if err := db.Model(&model.LicenseKey{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("count keys by status: %w", err)
	}
	for _, row := range byStatus {
		stats.TotalKeys += row.Count
		switch row.Status {
		case model.StatusPending:
			stats.PendingKeys = row.Count
		case model.StatusActive:
			stats.ActiveKeys = row.Count
		case model.StatusBanned:
			stats.BannedKeys = row.Count
		}
	}

	var byApp []struct {
		ApplicationID string
		Count         int64
	}
	if err := db.Model(&model.LicenseKey{}).
		Select("application_id, count(*) as count").
		Group("application_id").
		Scan(&byApp).Error; err != nil {
		return nil, fmt.Errorf("count keys by application: %w", err)
	}
	for _, row := range byApp {
		stats.KeysByApp[row.ApplicationID] = row.Count
	}

	var active []model.LicenseKey
	if err := db.Select("expiration_date").Where("status = ?", model.StatusActive).Find(&active).Error; err != nil {
		return nil, fmt.Errorf("load active keys: %w", err)
	}
	for _, key := range active {
		switch {
		case now.After(key.ExpirationDate):
			stats.ExpiredKeys++
		case key.ExpirationDate.Sub(now) <= expiringHorizon:
			stats.ExpiringKeys++
		}
	}

	if err := db.Model(&model.Application{}).Count(&stats.Applications).Error; err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}

	if err := db.Model(&model.LicenseUsage{}).
		Where("action = ? AND success = ?", model.UsageActionActivate, true).
		Count(&stats.Activations).Error; err != nil {
		return nil, fmt.Errorf("count activations: %w", err)
	}
	if err := db.Model(&model.LicenseUsage{}).
		Where("action = ? AND success = ?", model.UsageActionActivate, false).
		Count(&stats.FailedActivations).Error; err != nil {
		return nil, fmt.Errorf("count failed activations: %w", err)
	}

	return stats, nil
}
