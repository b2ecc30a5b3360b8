package server

import (
	"strconv"

	"liberty/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetChatHistory handles GET /api/chat/messages?limit=...
func (s *Server) GetChatHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	messages, err := s.chatService.History(c.UserContext(), limit)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(messages)
}

// SendChatMessage handles POST /api/chat/messages. The WebSocket endpoint is
// the primary send path; this exists for clients without a socket.
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chatService.Post(c.UserContext(), userID, req.Content)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishChatEvent(EventChatMessage, map[string]interface{}{
		"message_id": msg.ID,
		"content":    msg.Content,
		"user":       userSummary(msg.User),
		"created_at": msg.CreatedAt,
	})

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// DeleteChatMessage handles DELETE /api/admin/chat/messages/:id
func (s *Server) DeleteChatMessage(c *fiber.Ctx) error {
	staffID := currentUserID(c)
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.chatService.DeleteMessage(c.UserContext(), staffID, messageID); err != nil {
		return s.respondServiceError(c, err)
	}

	// Tell connected chat clients to drop the message from their view.
	s.publishChatEvent(EventChatMessageDeleted, map[string]interface{}{
		"message_id": messageID,
	})
	s.publishModerationEvent(EventChatMessageDeleted, map[string]interface{}{
		"message_id": messageID,
		"staff_id":   staffID,
	})

	return c.JSON(fiber.Map{"message": "Chat message deleted"})
}
