package service

import (
	"context"
	"errors"
	"testing"

	"license-key-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, err := env.apps.Create(ctx, "  Demo  ")
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, "Demo", app.Name)
	assert.True(t, app.CreatedAt.Equal(testNow))

	_, err = env.apps.Create(ctx, "   ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)
}

func TestApplicationGet(t *testing.T) {
	env := newTestEnv(t)
	app := env.createApp(t, "Demo")

	got, err := env.apps.Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.Name, got.Name)

	_, err = env.apps.Get(context.Background(), "missing")
	var nerr *NotFoundError
	assert.True(t, errors.As(err, &nerr))
}

func TestApplicationListInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	names := []string{"Zeta", "Alpha", "Mid"}
	for _, n := range names {
		env.createApp(t, n)
	}

	apps, err := env.apps.List(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 3)
	for i, n := range names {
		assert.Equal(t, n, apps[i].Name)
	}
}

func TestApplicationUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.createApp(t, "Demo")

	renamed := "Demo Pro"
	require.NoError(t, env.apps.Update(ctx, app.ID, ApplicationUpdate{Name: &renamed}))

	got, err := env.apps.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo Pro", got.Name)
	assert.Equal(t, app.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(app.CreatedAt))

	require.NoError(t, env.apps.Update(ctx, app.ID, ApplicationUpdate{}))

	empty := ""
	var verr *ValidationError
	assert.True(t, errors.As(env.apps.Update(ctx, app.ID, ApplicationUpdate{Name: &empty}), &verr))

	var nerr *NotFoundError
	assert.True(t, errors.As(env.apps.Update(ctx, "missing", ApplicationUpdate{Name: &renamed}), &nerr))
}

func TestApplicationDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doomed := env.createApp(t, "Doomed")
	kept := env.createApp(t, "Kept")
	for i := 0; i < 5; i++ {
		env.createKey(t, doomed.ID, 30)
	}
	survivor := env.createKey(t, kept.ID, 30)

	require.NoError(t, env.apps.Delete(ctx, doomed.ID))

	var orphans int64
	require.NoError(t, env.db.Model(&model.LicenseKey{}).Where("application_id = ?", doomed.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	_, err := env.apps.Get(ctx, doomed.ID)
	var nerr *NotFoundError
	assert.True(t, errors.As(err, &nerr))

	_, err = env.keys.Get(ctx, survivor.ID)
	assert.NoError(t, err)

	// second delete is a no-op
	assert.NoError(t, env.apps.Delete(ctx, doomed.ID))
}
