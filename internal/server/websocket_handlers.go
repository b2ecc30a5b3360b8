package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"liberty/internal/middleware"
	"liberty/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles personal notification connections. Staff
// connections additionally receive the live moderation event stream, so the
// dashboard updates without polling.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("WebSocket: Failed to get user %d: %v", userID, err)
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn, user.IsGlobalStaff())
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		welcome := map[string]interface{}{
			"type": "connected",
			"payload": map[string]interface{}{
				"user_id":  userID,
				"username": user.Username,
				"staff":    user.IsGlobalStaff(),
			},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketChatHandler handles connections to the single global chat room.
// Incoming "message" frames are persisted and fanned out to the room.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket Chat: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to get user %d: %v", userID, err)
			_ = conn.Close()
			return
		}
		username := user.Username

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming map[string]interface{}
			if err := json.Unmarshal(message, &incoming); err != nil {
				log.Printf("WebSocket Chat: Invalid message format from user %d", userID)
				return
			}

			msgType, ok := incoming["type"].(string)
			if !ok || msgType != "message" {
				return
			}

			content, _ := incoming["content"].(string)
			if content == "" {
				return
			}

			// Same rate limit as the HTTP send endpoint; slow mode tightens
			// it for users in the rollout.
			limit := 15
			if s.flags.Enabled("chat_slowmode", userID) {
				limit = 3
			}
			id := fmt.Sprintf("user:%d", userID)
			allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_chat", id, limit, time.Minute)
			if !allowed {
				s.sendChatError(c, "Rate limit exceeded. Please wait a moment.")
				return
			}

			msg, err := s.chatService.Post(ctx, userID, content)
			if err != nil {
				s.sendChatError(c, err.Error())
				return
			}

			s.publishChatEvent(EventChatMessage, map[string]interface{}{
				"message_id": msg.ID,
				"content":    msg.Content,
				"user":       userSummary(msg.User),
				"created_at": msg.CreatedAt,
			})
		}

		welcome := notifications.ChatFrame{
			Type:     "connected",
			UserID:   userID,
			Username: username,
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketSupportHandler handles connections to a support ticket room,
// selected by the ?ticket= query parameter. Admission follows the same rule
// as the HTTP endpoints: ticket owner or global staff.
func (s *Server) WebSocketSupportHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket Support: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		ticketID64, err := strconv.ParseUint(conn.Query("ticket"), 10, 32)
		if err != nil || ticketID64 == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid ticket id"}`))
			_ = conn.Close()
			return
		}
		ticketID := uint(ticketID64)

		// GetTicket enforces participant access.
		if _, err := s.supportService.GetTicket(ctx, userID, ticketID); err != nil {
			log.Printf("WebSocket Support: User %d denied for ticket %d: %v", userID, ticketID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"forbidden"}`))
			_ = conn.Close()
			return
		}

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("WebSocket Support: Failed to get user %d: %v", userID, err)
			_ = conn.Close()
			return
		}
		username := user.Username

		if s.supportHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.supportHub.Register(ticketID, userID, conn)
		if err != nil {
			log.Printf("WebSocket Support: Failed to register user %d on ticket %d: %v", userID, ticketID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming map[string]interface{}
			if err := json.Unmarshal(message, &incoming); err != nil {
				return
			}

			msgType, ok := incoming["type"].(string)
			if !ok || msgType != "message" {
				return
			}

			content, _ := incoming["content"].(string)
			if content == "" {
				return
			}

			id := fmt.Sprintf("user:%d", userID)
			allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "ticket_message", id, 15, time.Minute)
			if !allowed {
				return
			}

			msg, err := s.supportService.PostMessage(ctx, userID, ticketID, content)
			if err != nil {
				errFrame := notifications.TicketEvent{
					Type:     "error",
					TicketID: ticketID,
					Payload:  map[string]string{"message": err.Error()},
				}
				if errJSON, merr := json.Marshal(errFrame); merr == nil {
					c.TrySend(errJSON)
				}
				return
			}

			s.publishTicketEvent(ticketID, EventTicketMessage, map[string]interface{}{
				"message_id": msg.ID,
				"ticket_id":  msg.TicketID,
				"sender":     userSummaryPtr(msg.Sender),
				"content":    msg.Content,
				"created_at": msg.CreatedAt,
			})
		}

		s.supportHub.BroadcastEvent(notifications.TicketEvent{
			Type:     "joined",
			TicketID: ticketID,
			UserID:   userID,
			Username: username,
		})

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) sendChatError(c *notifications.Client, message string) {
	frame := notifications.ChatFrame{
		Type:    "error",
		Payload: map[string]string{"message": message},
	}
	if frameJSON, err := json.Marshal(frame); err == nil {
		c.TrySend(frameJSON)
	}
}
