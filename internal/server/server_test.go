package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"liberty/internal/config"
	"liberty/internal/database"
	"liberty/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer builds a server on an in-memory database with no Redis.
// Without Redis the realtime hubs are absent and event publishing is a
// no-op, which is what handler tests want.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := &config.Config{
		JWTSecret:            "test-secret",
		Env:                  "test",
		AvatarUploadDir:      t.TempDir(),
		ImageMaxUploadSizeMB: 1,
	}

	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func createUser(t *testing.T, s *Server, username string, role models.GlobalRole) *models.User {
	t.Helper()
	user := &models.User{
		Username:   username,
		Email:      username + "@liberty.local",
		Password:   "x",
		Name:       username,
		GlobalRole: role,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

// bearer issues a real token so requests exercise AuthRequired end to end.
func bearer(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, app *fiber.App, method, path, auth string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
