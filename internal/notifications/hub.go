// Package notifications provides real-time delivery over websockets backed
// by Redis pub/sub, so events reach clients connected to any instance.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"liberty/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub maps userID -> connections for personal notifications, and tracks
// which of those connections belong to staff so moderation events can be
// fanned out to dashboard sessions only.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	staff      map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
	presence   *ConnectionManager
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// NewHub creates a new Hub instance for managing notifications.
func NewHub(redisClients ...*redis.Client) *Hub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	presence := NewConnectionManager(redisClient, ConnectionManagerConfig{})

	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		staff:    make(map[*Client]struct{}),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		presence: presence,
	}
}

// Register adds a connection for userID. isStaff connections additionally
// receive the moderation event stream.
func (h *Hub) Register(userID uint, conn *websocket.Conn, isStaff bool) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		if h.presence != nil {
			h.presence.Touch(context.Background(), uid)
		}
	}

	m[client] = struct{}{}
	if isStaff {
		h.staff[client] = struct{}{}
	}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	if h.presence != nil {
		h.presence.Register(context.Background(), userID)
	}

	return client, nil
}

// UnregisterClient removes the connection and releases presence when it was
// the user's last one.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removedClient := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removedClient = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	delete(h.staff, client)
	h.mu.Unlock()

	if removedClient {
		observability.WebSocketConnectionsTotal.Dec()
		if h.presence != nil {
			h.presence.Unregister(context.Background(), client.UserID)
		}
	}
}

// SetPresenceCallbacks wires online/offline transition hooks.
func (h *Hub) SetPresenceCallbacks(onOnline, onOffline func(userID uint)) {
	if h.presence == nil {
		return
	}
	h.presence.SetCallbacks(onOnline, onOffline)
}

// Broadcast sends message to all connections for userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastStaff sends message to every connected staff dashboard session.
func (h *Hub) BroadcastStaff(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.staff {
		c.TrySend(data)
	}
}

// IsOnline reports whether a user currently has at least one active
// websocket connection anywhere in the cluster.
func (h *Hub) IsOnline(userID uint) bool {
	if h.presence != nil {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	return ok && len(clients) > 0
}

// OnlineUserIDs returns every user currently online across the cluster,
// falling back to local connections when Redis is unavailable.
func (h *Hub) OnlineUserIDs(ctx context.Context) []uint {
	if h.presence != nil {
		return h.presence.GetOnlineUserIDs(ctx)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint, 0, len(h.conns))
	for userID, clients := range h.conns {
		if len(clients) > 0 {
			ids = append(ids, userID)
		}
	}
	return ids
}

// StartWiring subscribes to the notification and moderation channels and
// forwards payloads to matching connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		switch {
		case channel == channelBroadcast:
			h.BroadcastAll(payload)
		case channel == channelModeration:
			h.BroadcastStaff(payload)
		case strings.HasPrefix(channel, channelUserPrefix):
			var userID uint
			if _, err := fmt.Sscanf(channel, channelUserPrefix+"%d", &userID); err != nil {
				log.Printf("invalid notification channel: %s", channel)
				return
			}
			h.Broadcast(userID, payload)
		default:
			log.Printf("invalid notification channel: %s", channel)
		}
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	if h.presence != nil {
		h.presence.Stop()
	}

	h.mu.Lock()
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.staff = make(map[*Client]struct{})
	h.mu.Unlock()

	close(h.done)

	return nil
}
