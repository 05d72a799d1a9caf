package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"license-key-service/internal/database"
	"license-key-service/internal/metrics"
	"license-key-service/internal/model"
	"license-key-service/internal/service"
	"license-key-service/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdmin    = "admin"
	testPassword = "s3cret-pass"
)

var testSecret = []byte("test-secret")

type testServer struct {
	app   *fiber.App
	apps  *service.ApplicationService
	keys  *service.LicenseService
	audit *service.AuditService
	token string
}

func newTestServer(t *testing.T, sheet *service.SheetSyncService) *testServer {
	t.Helper()

	db := database.NewTestDB(t)
	log := zap.NewNop()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	ts := &testServer{
		apps:  service.NewApplicationService(db, log),
		audit: service.NewAuditService(db),
	}
	ts.keys = service.NewLicenseService(db, ts.apps, log)

	h := New(ts.apps, ts.keys, ts.audit, sheet, metrics.New(), AdminAuth{
		Username:     testAdmin,
		PasswordHash: string(hash),
		Secret:       testSecret,
		TokenTTL:     time.Hour,
	}, log)

	ts.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	SetupRoutes(ts.app, h, 0)

	ts.token, err = util.GenerateToken(testSecret, testAdmin, util.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return ts
}

// do sends an admin-authenticated request and decodes the JSON body into out
// when out is non-nil.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	return ts.send(t, method, path, body, ts.token, out)
}

func (ts *testServer) send(t *testing.T, method, path string, body interface{}, token string, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) createApp(t *testing.T, name string) *model.Application {
	t.Helper()
	app, err := ts.apps.Create(context.Background(), name)
	require.NoError(t, err)
	return app
}

func (ts *testServer) createKey(t *testing.T, appID string, days int) *model.LicenseKey {
	t.Helper()
	key, err := ts.keys.Create(context.Background(), service.KeyInput{ApplicationID: appID, DurationDays: days})
	require.NoError(t, err)
	return key
}
