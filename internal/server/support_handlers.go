package server

import (
	"liberty/internal/models"

	"github.com/gofiber/fiber/v2"
)

// OpenSupportTicket handles POST /api/support/tickets. If the user already
// has an open ticket it is returned instead of opening a second one.
func (s *Server) OpenSupportTicket(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Message string `json:"message"`
	}
	// First message is optional; ignore parse failures on an empty body.
	_ = c.BodyParser(&req)

	ticket, err := s.supportService.OpenTicket(c.UserContext(), userID, req.Message)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishModerationEvent(EventTicketOpened, map[string]interface{}{
		"ticket_id": ticket.ID,
		"user_id":   ticket.UserID,
		"user_name": ticket.UserName,
	})

	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// GetMySupportTicket handles GET /api/support/tickets/me
func (s *Server) GetMySupportTicket(c *fiber.Ctx) error {
	userID := currentUserID(c)

	ticket, err := s.supportService.MyTicket(c.UserContext(), userID)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	if ticket == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Support ticket", "open"))
	}

	return c.JSON(ticket)
}

// supportQueueItem decorates a ticket with cluster-wide requester presence
// so staff can prioritize conversations the user is still waiting in.
type supportQueueItem struct {
	models.SupportTicket
	RequesterOnline bool `json:"requester_online"`
}

func (s *Server) requesterOnline(userID uint) bool {
	return s.hub != nil && s.hub.IsOnline(userID)
}

// GetOpenSupportTickets handles GET /api/admin/support/tickets
func (s *Server) GetOpenSupportTickets(c *fiber.Ctx) error {
	userID := currentUserID(c)
	page := parsePagination(c, 20)

	tickets, err := s.supportService.ListOpen(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	items := make([]supportQueueItem, len(tickets))
	for i, ticket := range tickets {
		items[i] = supportQueueItem{
			SupportTicket:   ticket,
			RequesterOnline: s.requesterOnline(ticket.UserID),
		}
	}

	return c.JSON(items)
}

// GetOnlinePresence handles GET /api/admin/presence. The dashboard shows the
// current online population next to the moderation queues.
func (s *Server) GetOnlinePresence(c *fiber.Ctx) error {
	online := []uint{}
	if s.hub != nil {
		online = s.hub.OnlineUserIDs(c.UserContext())
	}
	return c.JSON(fiber.Map{
		"online_user_ids": online,
		"count":           len(online),
	})
}

// GetSupportTicket handles GET /api/support/tickets/:id
func (s *Server) GetSupportTicket(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ticket, err := s.supportService.GetTicket(c.UserContext(), userID, id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(supportQueueItem{
		SupportTicket:   *ticket,
		RequesterOnline: s.requesterOnline(ticket.UserID),
	})
}

// CloseSupportTicket handles POST /api/support/tickets/:id/close
func (s *Server) CloseSupportTicket(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ticket, err := s.supportService.Close(c.UserContext(), userID, id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishTicketEvent(ticket.ID, EventTicketClosed, map[string]interface{}{
		"ticket_id": ticket.ID,
		"closed_by": userID,
	})

	return c.JSON(ticket)
}

// PostTicketMessage handles POST /api/support/tickets/:id/messages
func (s *Server) PostTicketMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.supportService.PostMessage(c.UserContext(), userID, id, req.Content)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishTicketEvent(id, EventTicketMessage, map[string]interface{}{
		"message_id": msg.ID,
		"ticket_id":  msg.TicketID,
		"sender":     userSummaryPtr(msg.Sender),
		"content":    msg.Content,
		"created_at": msg.CreatedAt,
	})

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetTicketMessages handles GET /api/support/tickets/:id/messages
func (s *Server) GetTicketMessages(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	messages, err := s.supportService.Messages(c.UserContext(), userID, id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(messages)
}
