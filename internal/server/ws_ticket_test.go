package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"liberty/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestIssueWSTicket(t *testing.T) {
	mr, rdb := newTicketTestRedis(t)

	s := &Server{
		config: &config.Config{JWTSecret: "test-secret"},
		redis:  rdb,
	}

	app := fiber.New()
	app.Post("/api/ws/ticket", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(42))
		return s.IssueWSTicket(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Ticket)
	assert.Equal(t, 30, body.ExpiresIn)

	// The ticket maps back to the issuing user and carries a short TTL.
	key := fmt.Sprintf("ws_ticket:%s", body.Ticket)
	val, err := rdb.Get(context.Background(), key).Result()
	require.NoError(t, err)
	assert.Equal(t, "42", val)

	ttl := mr.TTL(key)
	assert.True(t, ttl > 0 && ttl <= 30*time.Second, "ticket TTL should be at most 30s, got %v", ttl)
}

func TestIssueWSTicket_NoRedis(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: "test-secret"}}

	app := fiber.New()
	app.Post("/api/ws/ticket", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return s.IssueWSTicket(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthRequired_WSTicket(t *testing.T) {
	_, rdb := newTicketTestRedis(t)

	s := &Server{
		config: &config.Config{JWTSecret: "test-secret"},
		redis:  rdb,
	}

	app := fiber.New()
	app.Get("/api/ws/test", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})
	app.Get("/api/other", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	ctx := context.Background()

	t.Run("valid ticket authenticates and is consumed", func(t *testing.T) {
		ticket := "ws-test-ticket-1"
		key := fmt.Sprintf("ws_ticket:%s", ticket)
		require.NoError(t, rdb.Set(ctx, key, "123", time.Minute).Err())

		req := httptest.NewRequest(http.MethodGet, "/api/ws/test?ticket="+ticket, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, float64(123), body["userID"])
		_ = resp.Body.Close()

		// Single use: the key is deleted the moment it authenticates.
		exists, err := rdb.Exists(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(0), exists)
	})

	t.Run("replayed ticket is rejected on ws path", func(t *testing.T) {
		ticket := "ws-test-ticket-2"
		key := fmt.Sprintf("ws_ticket:%s", ticket)
		require.NoError(t, rdb.Set(ctx, key, "789", time.Minute).Err())

		req := httptest.NewRequest(http.MethodGet, "/api/ws/test?ticket="+ticket, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		req2 := httptest.NewRequest(http.MethodGet, "/api/ws/test?ticket="+ticket, nil)
		resp2, err := app.Test(req2)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
		_ = resp2.Body.Close()
	})

	t.Run("ticket works on non-ws path too", func(t *testing.T) {
		ticket := "other-test-ticket-1"
		key := fmt.Sprintf("ws_ticket:%s", ticket)
		require.NoError(t, rdb.Set(ctx, key, "456", time.Minute).Err())

		req := httptest.NewRequest(http.MethodGet, "/api/other?ticket="+ticket, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		exists, err := rdb.Exists(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(0), exists)
	})

	t.Run("invalid ticket on ws path returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ws/test?ticket=invalid", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("invalid ticket on non-ws path falls through to jwt check", func(t *testing.T) {
		// No bearer token either, so the fallback also rejects the request.
		req := httptest.NewRequest(http.MethodGet, "/api/other?ticket=invalid", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
