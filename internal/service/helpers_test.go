package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"license-key-service/internal/database"
	"license-key-service/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db    *gorm.DB
	apps  *ApplicationService
	keys  *LicenseService
	audit *AuditService
	now   time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := database.NewTestDB(t)
	env := &testEnv{db: db, now: testNow}

	clock := func() time.Time { return env.now }
	env.apps = NewApplicationService(db, zap.NewNop())
	env.apps.Now = clock
	env.keys = NewLicenseService(db, env.apps, zap.NewNop())
	env.keys.Now = clock
	env.audit = NewAuditService(db)
	env.audit.Now = clock
	return env
}

func (e *testEnv) createApp(t *testing.T, name string) *model.Application {
	t.Helper()
	app, err := e.apps.Create(context.Background(), name)
	require.NoError(t, err)
	return app
}

func (e *testEnv) createKey(t *testing.T, appID string, days int) *model.LicenseKey {
	t.Helper()
	key, err := e.keys.Create(context.Background(), KeyInput{
		ApplicationID:  appID,
		DurationDays:   days,
		ExpirationDate: e.now.Add(time.Duration(days) * day),
	})
	require.NoError(t, err)
	return key
}

func (e *testEnv) reload(t *testing.T, id string) model.LicenseKey {
	t.Helper()
	var key model.LicenseKey
	require.NoError(t, e.db.Where("id = ?", id).First(&key).Error)
	return key
}

// recordingSyncer collects synced keys for assertions.
type recordingSyncer struct {
	mu   sync.Mutex
	keys []model.LicenseKey
	done chan struct{}
}

func newRecordingSyncer() *recordingSyncer {
	return &recordingSyncer{done: make(chan struct{}, 16)}
}

func (r *recordingSyncer) SyncKey(_ context.Context, key *model.LicenseKey) error {
	r.mu.Lock()
	r.keys = append(r.keys, *key)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingSyncer) wait(t *testing.T, n int) []model.LicenseKey {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for sync %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.LicenseKey(nil), r.keys...)
}
