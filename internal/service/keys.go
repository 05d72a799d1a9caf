package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"license-key-service/internal/logger"
	"license-key-service/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MsgActivated        = "Key activated successfully"
	MsgActivationFailed = "Key not found or already activated"
	MsgKeyNotFound      = "Key not found"
	MsgKeyBanned        = "Key is banned"
	MsgKeyPending       = "Key is pending activation"
	MsgKeyExpired       = "Key has expired"
	MsgKeyValid         = "Key is valid"
	MsgKeyInvalidStatus = "Invalid key status"
)

const (
	day             = 24 * time.Hour
	maxKeyAttempts  = 10
	expiringHorizon = 30 * day
)

// ActivationResult is the outcome of redeeming a key. A failed activation is
// an ordinary result, not an error.
type ActivationResult struct {
	Success bool
	Message string
	Key     *model.LicenseKey
}

// ValidationResult is the outcome of checking whether a key grants access.
type ValidationResult struct {
	Valid   bool
	Message string
	Key     *model.LicenseKey
}

// KeyInput describes a key to issue.
type KeyInput struct {
	ApplicationID  string
	DurationDays   int
	ExpirationDate time.Time
}

// KeyUpdate is the operator override for an existing key. Nil fields are
// left unchanged and ActivatedAt is never touched.
type KeyUpdate struct {
	Status         *model.Status
	DurationDays   *int
	ExpirationDate *time.Time
}

type KeyFilter struct {
	ApplicationID string
	Status        model.Status
}

// KeySyncer mirrors key changes to an external system.
type KeySyncer interface {
	SyncKey(ctx context.Context, key *model.LicenseKey) error
}

// LicenseService owns the key lifecycle: issue, activate, validate and
// operator overrides.
type LicenseService struct {
	db     *gorm.DB
	apps   *ApplicationService
	log    *zap.Logger
	syncer KeySyncer

	Now      func() time.Time
	Generate func() (string, error)
}

func NewLicenseService(db *gorm.DB, apps *ApplicationService, log *zap.Logger) *LicenseService {
	return &LicenseService{
		db:       db,
		apps:     apps,
		log:      log,
		Now:      time.Now,
		Generate: GenerateKey,
	}
}

// SetSyncer registers a syncer notified after every key mutation.
func (s *LicenseService) SetSyncer(syncer KeySyncer) {
	s.syncer = syncer
}

// Create issues a pending key. The application check and the insert share one
// transaction, and the foreign key on application_id backs it up, so a key is
// never left behind by a concurrent application delete.
func (s *LicenseService) Create(ctx context.Context, in KeyInput) (*model.LicenseKey, error) {
	if in.DurationDays < 1 {
		return nil, invalid("durationDays", "must be at least 1")
	}
	now := s.Now().UTC()
	expires := in.ExpirationDate.UTC()
	if in.ExpirationDate.IsZero() {
		expires = now.Add(time.Duration(in.DurationDays) * day)
	}

	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		code, err := s.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}

		key := &model.LicenseKey{
			ID:             uuid.NewString(),
			ApplicationID:  in.ApplicationID,
			Key:            code,
			Status:         model.StatusPending,
			DurationDays:   in.DurationDays,
			ExpirationDate: expires,
			CreatedAt:      now,
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ok, err := s.apps.exists(tx, in.ApplicationID)
			if err != nil {
				return err
			}
			if !ok {
				return notFound("application", in.ApplicationID)
			}

			var taken int64
			if err := tx.Model(&model.LicenseKey{}).Where("key = ?", code).Count(&taken).Error; err != nil {
				return fmt.Errorf("check key: %w", err)
			}
			if taken > 0 {
				return gorm.ErrDuplicatedKey
			}
			return tx.Create(key).Error
		})
		var nerr *NotFoundError
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			s.log.Warn("generated key collided, retrying", zap.Int("attempt", attempt))
			continue
		case errors.As(err, &nerr):
			return nil, err
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, notFound("application", in.ApplicationID)
		case err != nil:
			return nil, fmt.Errorf("create key: %w", err)
		}

		s.log.Info("license key created",
			zap.String("key_id", key.ID),
			zap.String("application_id", key.ApplicationID),
			zap.String("key", logger.MaskKey(key.Key)),
		)
		s.sync(key)
		return key, nil
	}

	return nil, fmt.Errorf("create key: no unique key after %d attempts", maxKeyAttempts)
}

// Activate redeems a pending key. The status check and the write happen as
// one compare-and-swap, so concurrent callers see exactly one success.
func (s *LicenseService) Activate(ctx context.Context, code string) (ActivationResult, error) {
	now := s.Now().UTC()

	var key model.LicenseKey
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ? AND status = ?", code, model.StatusPending).First(&key).Error; err != nil {
			return err
		}

		expires := now.Add(time.Duration(key.DurationDays) * day)
		res := tx.Model(&model.LicenseKey{}).
			Where("id = ? AND status = ?", key.ID, model.StatusPending).
			Updates(map[string]interface{}{
				"status":          model.StatusActive,
				"activated_at":    now,
				"expiration_date": expires,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		key.Status = model.StatusActive
		key.ActivatedAt = &now
		key.ExpirationDate = expires
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ActivationResult{Message: MsgActivationFailed}, nil
	}
	if err != nil {
		return ActivationResult{}, fmt.Errorf("activate key: %w", err)
	}

	s.log.Info("license key activated",
		zap.String("key_id", key.ID),
		zap.Time("expires_at", key.ExpirationDate),
	)
	s.sync(&key)
	return ActivationResult{Success: true, Message: MsgActivated, Key: &key}, nil
}

// Validate reports whether code currently grants access. It never writes.
func (s *LicenseService) Validate(ctx context.Context, code string) (ValidationResult, error) {
	var key model.LicenseKey
	err := s.db.WithContext(ctx).Where("key = ?", code).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ValidationResult{Message: MsgKeyNotFound}, nil
	}
	if err != nil {
		return ValidationResult{}, fmt.Errorf("validate key: %w", err)
	}
	return Evaluate(&key, s.Now()), nil
}

// Evaluate applies the validation rules to key at time now. Banned wins over
// pending, and only active keys are checked against the clock.
func Evaluate(key *model.LicenseKey, now time.Time) ValidationResult {
	switch key.Status {
	case model.StatusBanned:
		return ValidationResult{Message: MsgKeyBanned, Key: key}
	case model.StatusPending:
		return ValidationResult{Message: MsgKeyPending, Key: key}
	case model.StatusActive:
		if now.After(key.ExpirationDate) {
			return ValidationResult{Message: MsgKeyExpired, Key: key}
		}
		return ValidationResult{Valid: true, Message: MsgKeyValid, Key: key}
	}
	return ValidationResult{Message: MsgKeyInvalidStatus, Key: key}
}

// RemainingDays is the number of whole or partial days left on an active key.
// The second result is false for keys that are not active.
func RemainingDays(key *model.LicenseKey, now time.Time) (int, bool) {
	if key.Status != model.StatusActive {
		return 0, false
	}
	left := key.ExpirationDate.Sub(now)
	return int(math.Ceil(float64(left) / float64(day))), true
}

func (s *LicenseService) Update(ctx context.Context, id string, upd KeyUpdate) error {
	updates := map[string]interface{}{}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return invalid("status", fmt.Sprintf("unknown status %q", *upd.Status))
		}
		updates["status"] = *upd.Status
	}
	if upd.DurationDays != nil {
		if *upd.DurationDays < 1 {
			return invalid("durationDays", "must be at least 1")
		}
		updates["duration_days"] = *upd.DurationDays
	}
	if upd.ExpirationDate != nil {
		updates["expiration_date"] = upd.ExpirationDate.UTC()
	}

	var key model.LicenseKey
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).First(&key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("license key", id)
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&model.LicenseKey{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update key: %w", err)
		}
		return tx.Where("id = ?", id).First(&key).Error
	})
	if err != nil {
		return err
	}

	s.log.Info("license key updated", zap.String("key_id", id), zap.String("status", string(key.Status)))
	s.sync(&key)
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *LicenseService) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.LicenseKey{}).Error; err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

func (s *LicenseService) Get(ctx context.Context, id string) (*model.LicenseKey, error) {
	var key model.LicenseKey
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("license key", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return &key, nil
}

func (s *LicenseService) GetByKey(ctx context.Context, code string) (*model.LicenseKey, error) {
	var key model.LicenseKey
	err := s.db.WithContext(ctx).Where("key = ?", code).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("license key", code)
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return &key, nil
}

// List returns keys matching filter in insertion order.
func (s *LicenseService) List(ctx context.Context, filter KeyFilter) ([]model.LicenseKey, error) {
	q := s.db.WithContext(ctx).Model(&model.LicenseKey{})
	if filter.ApplicationID != "" {
		q = q.Where("application_id = ?", filter.ApplicationID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	keys := make([]model.LicenseKey, 0)
	if err := q.Order("seq ASC").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

func (s *LicenseService) sync(key *model.LicenseKey) {
	if s.syncer == nil {
		return
	}
	cp := *key
	go func() {
		if err := s.syncer.SyncKey(context.Background(), &cp); err != nil {
			s.log.Warn("key sync failed", zap.String("key_id", cp.ID), zap.Error(err))
		}
	}()
}
