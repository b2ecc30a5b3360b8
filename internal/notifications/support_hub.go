package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"

	"liberty/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// SupportHub manages websocket connections for support ticket rooms. Unlike
// Hub (user-centric), SupportHub is room-centric: a connection joins exactly
// one ticket room for its lifetime, and each room holds the ticket's owner
// plus any staff working it.
type SupportHub struct {
	mu sync.RWMutex

	// ticketID -> set of clients in the room
	rooms map[uint]map[*Client]struct{}

	// client -> ticketID for cleanup on disconnect
	membership map[*Client]uint
}

// Name returns a human-readable identifier for this hub.
func (h *SupportHub) Name() string { return "support hub" }

// TicketEvent is a frame broadcast to a ticket room.
type TicketEvent struct {
	Type     string      `json:"type"` // "message", "joined", "left", "ticket_closed"
	TicketID uint        `json:"ticket_id"`
	UserID   uint        `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// NewSupportHub creates a new SupportHub instance.
func NewSupportHub() *SupportHub {
	return &SupportHub{
		rooms:      make(map[uint]map[*Client]struct{}),
		membership: make(map[*Client]uint),
	}
}

// Register joins a user's connection to a ticket room. Authorization (owner
// or staff) is the caller's responsibility.
func (h *SupportHub) Register(ticketID, userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	room, ok := h.rooms[ticketID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[ticketID] = room
	}
	if len(room) >= maxConnsPerUser*2 {
		h.mu.Unlock()
		return nil, fmt.Errorf("ticket room connection limit reached")
	}

	client := NewClient(h, conn, userID)
	room[client] = struct{}{}
	h.membership[client] = ticketID
	h.mu.Unlock()

	observability.TicketRoomConnections.WithLabelValues(ticketIDLabel(ticketID)).Inc()
	log.Printf("SupportHub: user %d joined ticket %d", userID, ticketID)
	return client, nil
}

// UnregisterClient removes the connection from its room, dropping the room
// when it empties.
func (h *SupportHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	ticketID, ok := h.membership[client]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.membership, client)
	if room, exists := h.rooms[ticketID]; exists {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
	h.mu.Unlock()

	observability.TicketRoomConnections.WithLabelValues(ticketIDLabel(ticketID)).Dec()
}

// BroadcastTicket sends raw data to every connection in a ticket room.
func (h *SupportHub) BroadcastTicket(ticketID uint, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[ticketID] {
		c.TrySend(data)
	}
}

// BroadcastEvent marshals and sends a TicketEvent to its room.
func (h *SupportHub) BroadcastEvent(event TicketEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("SupportHub: marshal event: %v", err)
		return
	}
	h.BroadcastTicket(event.TicketID, data)
}

// RoomSize reports how many connections a ticket room currently holds.
func (h *SupportHub) RoomSize(ticketID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ticketID])
}

// StartWiring subscribes to the support ticket channels and forwards
// payloads into local rooms.
func (h *SupportHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSupportSubscriber(ctx, func(channel, payload string) {
		ticketID, err := ParseTicketChannel(channel)
		if err != nil {
			log.Printf("SupportHub: %v", err)
			return
		}
		h.BroadcastTicket(ticketID, []byte(payload))
	})
}

// Shutdown closes every room connection.
func (h *SupportHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for client := range room {
			if client.Conn == nil {
				continue
			}
			_ = client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"))
			_ = client.Conn.Close()
		}
	}
	h.rooms = make(map[uint]map[*Client]struct{})
	h.membership = make(map[*Client]uint)
	return nil
}

func ticketIDLabel(ticketID uint) string {
	return strconv.FormatUint(uint64(ticketID), 10)
}
