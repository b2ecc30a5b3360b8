package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"liberty/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// ChatHub manages websocket connections for the single global chat room.
// Every registered connection receives every chat frame; presence snapshots
// let clients render the online user list.
type ChatHub struct {
	mu sync.RWMutex

	// userID -> set of active clients (multi-device support)
	userConns map[uint]map[*Client]struct{}
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// ChatFrame is a frame broadcast to the global chat room.
type ChatFrame struct {
	Type     string      `json:"type"` // "message", "user_status", "connected_users", "message_deleted"
	UserID   uint        `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// NewChatHub creates a new ChatHub instance.
func NewChatHub() *ChatHub {
	return &ChatHub{
		userConns: make(map[uint]map[*Client]struct{}),
	}
}

// Register adds a user's connection to the room and sends it an online-users
// snapshot.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]struct{})
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = struct{}{}
	firstConn := len(h.userConns[userID]) == 1

	onlineIDs := make([]uint, 0, len(h.userConns))
	for id := range h.userConns {
		if id != userID {
			onlineIDs = append(onlineIDs, id)
		}
	}
	h.mu.Unlock()

	observability.WebSocketEventsTotal.WithLabelValues("chat_connect").Inc()

	if len(onlineIDs) > 0 {
		snapshot := ChatFrame{
			Type:    "connected_users",
			Payload: map[string]interface{}{"user_ids": onlineIDs},
		}
		if data, err := json.Marshal(snapshot); err == nil {
			client.TrySend(data)
		}
	}

	if firstConn {
		h.broadcastStatus(userID, "online")
	}
	return client, nil
}

// UnregisterClient removes a connection; the user goes offline when their
// last connection drops.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	lastConn := len(clients) == 0
	if lastConn {
		delete(h.userConns, client.UserID)
	}
	h.mu.Unlock()

	observability.WebSocketEventsTotal.WithLabelValues("chat_disconnect").Inc()
	if lastConn {
		h.broadcastStatus(client.UserID, "offline")
	}
}

// BroadcastRoom sends raw data to every connection in the room.
func (h *ChatHub) BroadcastRoom(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.userConns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastFrame marshals and sends a ChatFrame to the room.
func (h *ChatHub) BroadcastFrame(frame ChatFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("ChatHub: marshal frame: %v", err)
		return
	}
	h.BroadcastRoom(data)
}

// OnlineUserIDs returns the ids of users with at least one room connection.
func (h *ChatHub) OnlineUserIDs() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint, 0, len(h.userConns))
	for id := range h.userConns {
		ids = append(ids, id)
	}
	return ids
}

func (h *ChatHub) broadcastStatus(userID uint, status string) {
	h.BroadcastFrame(ChatFrame{
		Type:    "user_status",
		UserID:  userID,
		Payload: map[string]interface{}{"status": status},
	})
}

// StartWiring subscribes to the global chat channel and forwards payloads
// into the local room.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartGlobalChatSubscriber(ctx, func(_, payload string) {
		h.BroadcastRoom([]byte(payload))
	})
}

// Shutdown closes every room connection.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.userConns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			_ = client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"))
			_ = client.Conn.Close()
		}
	}
	h.userConns = make(map[uint]map[*Client]struct{})
	return nil
}
