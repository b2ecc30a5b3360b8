package server

import (
	"net/http"
	"strings"
	"testing"

	"liberty/internal/models"
	"liberty/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSupportTicket(t *testing.T) {
	s, app := newTestServer(t)
	user := createUser(t, s, "needhelp", models.GlobalRoleCivilian)

	t.Run("opens a ticket with a first message", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/support/tickets", bearer(t, s, user), map[string]string{
			"message": "I cannot change my avatar",
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var ticket models.SupportTicket
		decodeBody(t, resp, &ticket)
		assert.Equal(t, models.TicketStatusOpen, ticket.Status)
		assert.Equal(t, user.ID, ticket.UserID)
		assert.Equal(t, "needhelp", ticket.UserName)
	})

	t.Run("second open returns the existing ticket", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/support/tickets", bearer(t, s, user), map[string]string{
			"message": "still stuck",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var ticket models.SupportTicket
		decodeBody(t, resp, &ticket)

		var count int64
		require.NoError(t, s.db.Model(&models.SupportTicket{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	})

	t.Run("my ticket endpoint finds it", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/support/tickets/me", bearer(t, s, user), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var ticket models.SupportTicket
		decodeBody(t, resp, &ticket)
		assert.Equal(t, user.ID, ticket.UserID)
	})
}

func TestSupportTicketConversation(t *testing.T) {
	s, app := newTestServer(t)
	user := createUser(t, s, "asker", models.GlobalRoleCivilian)
	mod := createUser(t, s, "helper", models.GlobalRoleModerator)
	stranger := createUser(t, s, "lurker", models.GlobalRoleCivilian)

	resp := doRequest(t, app, http.MethodPost, "/api/support/tickets", bearer(t, s, user), map[string]string{
		"message": "Where did my post go?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ticket models.SupportTicket
	decodeBody(t, resp, &ticket)

	t.Run("staff replies on the ticket", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost,
			"/api/support/tickets/"+itoa(ticket.ID)+"/messages", bearer(t, s, mod), map[string]string{
				"content": "It was removed for spam.",
			})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var msg models.SupportMessage
		decodeBody(t, resp, &msg)
		assert.Equal(t, mod.ID, msg.SenderID)
		require.NotNil(t, msg.Sender)
		assert.Equal(t, "helper", msg.Sender.Username)
	})

	t.Run("stranger cannot read or post", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet,
			"/api/support/tickets/"+itoa(ticket.ID)+"/messages", bearer(t, s, stranger), nil)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doRequest(t, app, http.MethodPost,
			"/api/support/tickets/"+itoa(ticket.ID)+"/messages", bearer(t, s, stranger), map[string]string{
				"content": "what happened here",
			})
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("message log lists both sides in order", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet,
			"/api/support/tickets/"+itoa(ticket.ID)+"/messages", bearer(t, s, user), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var messages []models.SupportMessage
		decodeBody(t, resp, &messages)
		require.Len(t, messages, 2)
		assert.Equal(t, user.ID, messages[0].SenderID)
		assert.Equal(t, mod.ID, messages[1].SenderID)
	})

	t.Run("close is final but log stays readable", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost,
			"/api/support/tickets/"+itoa(ticket.ID)+"/close", bearer(t, s, user), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var closed models.SupportTicket
		decodeBody(t, resp, &closed)
		assert.Equal(t, models.TicketStatusClosed, closed.Status)

		resp = doRequest(t, app, http.MethodPost,
			"/api/support/tickets/"+itoa(ticket.ID)+"/messages", bearer(t, s, user), map[string]string{
				"content": "one more thing",
			})
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp = doRequest(t, app, http.MethodGet,
			"/api/support/tickets/"+itoa(ticket.ID)+"/messages", bearer(t, s, user), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var messages []models.SupportMessage
		decodeBody(t, resp, &messages)
		assert.Len(t, messages, 2)
	})

	t.Run("no open ticket after close", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/support/tickets/me", bearer(t, s, user), nil)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetOpenSupportTickets(t *testing.T) {
	s, app := newTestServer(t)
	alice := createUser(t, s, "alicehelp", models.GlobalRoleCivilian)
	bob := createUser(t, s, "bobhelp", models.GlobalRoleCivilian)
	mod := createUser(t, s, "queuemod", models.GlobalRoleModerator)

	for _, u := range []*models.User{alice, bob} {
		resp := doRequest(t, app, http.MethodPost, "/api/support/tickets", bearer(t, s, u), map[string]string{
			"message": "help",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	t.Run("staff sees all open tickets", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/admin/support/tickets", bearer(t, s, mod), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var tickets []models.SupportTicket
		decodeBody(t, resp, &tickets)
		assert.Len(t, tickets, 2)
	})

	t.Run("requester is refused", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/admin/support/tickets", bearer(t, s, alice), nil)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestSupportQueue_RequesterOnlineIndicator(t *testing.T) {
	s, app := newTestServer(t)
	s.hub = notifications.NewHub()

	waiting := createUser(t, s, "stillwaiting", models.GlobalRoleCivilian)
	away := createUser(t, s, "walkedaway", models.GlobalRoleCivilian)
	mod := createUser(t, s, "presencemod", models.GlobalRoleModerator)

	for _, u := range []*models.User{waiting, away} {
		resp := doRequest(t, app, http.MethodPost, "/api/support/tickets", bearer(t, s, u), map[string]string{
			"message": "help",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	client, err := s.hub.Register(waiting.ID, nil, false)
	require.NoError(t, err)
	defer s.hub.UnregisterClient(client)

	resp := doRequest(t, app, http.MethodGet, "/api/admin/support/tickets", bearer(t, s, mod), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var queue []struct {
		models.SupportTicket
		RequesterOnline bool `json:"requester_online"`
	}
	decodeBody(t, resp, &queue)
	require.Len(t, queue, 2)

	onlineByUser := make(map[uint]bool, len(queue))
	for _, item := range queue {
		onlineByUser[item.UserID] = item.RequesterOnline
	}
	assert.True(t, onlineByUser[waiting.ID])
	assert.False(t, onlineByUser[away.ID])
}

func TestGetOnlinePresence(t *testing.T) {
	s, app := newTestServer(t)
	s.hub = notifications.NewHub()

	mod := createUser(t, s, "presenceviewer", models.GlobalRoleModerator)
	civ := createUser(t, s, "plainuser", models.GlobalRoleCivilian)

	client, err := s.hub.Register(civ.ID, nil, false)
	require.NoError(t, err)
	defer s.hub.UnregisterClient(client)

	resp := doRequest(t, app, http.MethodGet, "/api/admin/presence", bearer(t, s, mod), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OnlineUserIDs []uint `json:"online_user_ids"`
		Count         int    `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Count)
	assert.Contains(t, body.OnlineUserIDs, civ.ID)

	resp = doRequest(t, app, http.MethodGet, "/api/admin/presence", bearer(t, s, civ), nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPresenceChangeReachesStaffDashboard(t *testing.T) {
	s, _ := newTestServer(t)
	s.hub = notifications.NewHub()
	s.wirePresenceEvents()

	staffClient, err := s.hub.Register(7, nil, true)
	require.NoError(t, err)
	defer s.hub.UnregisterClient(staffClient)

	userClient, err := s.hub.Register(42, nil, false)
	require.NoError(t, err)
	defer s.hub.UnregisterClient(userClient)

	// Presence callbacks fire synchronously on register; the staff session
	// sees its own announcement first, then the user coming online.
	var frames []string
	for {
		select {
		case data := <-staffClient.Send:
			frames = append(frames, string(data))
			continue
		default:
		}
		break
	}

	require.NotEmpty(t, frames)
	found := false
	for _, frame := range frames {
		assert.Contains(t, frame, EventPresenceChanged)
		if strings.Contains(frame, `"user_id":42`) && strings.Contains(frame, `"online":true`) {
			found = true
		}
	}
	assert.True(t, found, "expected a presence event for user 42 on the staff connection")
}
