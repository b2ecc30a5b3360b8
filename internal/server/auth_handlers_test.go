package server

import (
	"net/http"
	"testing"
	"time"

	"liberty/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Sup3rSecret!pass"

func TestSignup(t *testing.T) {
	_, app := newTestServer(t)

	t.Run("creates a civilian account and returns a token", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "newcomer",
			"email":    "newcomer@example.com",
			"password": testPassword,
			"name":     "New Comer",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, models.GlobalRoleCivilian, body.User.GlobalRole)
		assert.Equal(t, "Civilian", body.User.RoleLabel)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "othername",
			"email":    "newcomer@example.com",
			"password": testPassword,
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "newcomer",
			"email":    "other@example.com",
			"password": testPassword,
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "weakling",
			"email":    "weak@example.com",
			"password": "short",
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid handle rejected", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "Bad Handle!",
			"email":    "handle@example.com",
			"password": testPassword,
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	s, app := newTestServer(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:   "loginuser",
		Email:      "login@example.com",
		Password:   string(hashed),
		GlobalRole: models.GlobalRoleCivilian,
	}
	require.NoError(t, s.db.Create(user).Error)

	t.Run("valid credentials return a token", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "login@example.com",
			"password": testPassword,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string `json:"token"`
		}
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body.Token)

		// The returned token passes the auth middleware.
		authed := doRequest(t, app, http.MethodGet, "/api/users/me", "Bearer "+body.Token, nil)
		defer func() { _ = authed.Body.Close() }()
		assert.Equal(t, http.StatusOK, authed.StatusCode)
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "login@example.com",
			"password": "Wr0ng!password99",
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email is 401", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ghost@example.com",
			"password": testPassword,
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("banned account is refused", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, s.db.Model(user).Updates(map[string]interface{}{
			"is_banned": true,
			"banned_at": now,
		}).Error)

		resp := doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "login@example.com",
			"password": testPassword,
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestLogout_RevokesToken(t *testing.T) {
	_, rdb := newTicketTestRedis(t)
	s, app := newTestServer(t)
	// Handlers read s.redis per request, so wiring it after route setup works.
	s.redis = rdb

	user := createUser(t, s, "leaver", models.GlobalRoleCivilian)
	auth := bearer(t, s, user)

	// Token works before logout.
	resp := doRequest(t, app, http.MethodGet, "/api/users/me", auth, nil)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/logout", auth, nil)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The JTI is blacklisted for the token's remaining lifetime.
	resp = doRequest(t, app, http.MethodGet, "/api/users/me", auth, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
