package service

import (
	"context"
	"log/slog"
	"strings"

	"liberty/internal/models"
	"liberty/internal/observability"
	"liberty/internal/repository"
)

// SupportService runs support tickets and their append-only message logs.
type SupportService struct {
	supportRepo repository.SupportRepository
	userRepo    repository.UserRepository
	authz       *AuthzService
}

// NewSupportService returns a new SupportService.
func NewSupportService(supportRepo repository.SupportRepository, userRepo repository.UserRepository, authz *AuthzService) *SupportService {
	return &SupportService{supportRepo: supportRepo, userRepo: userRepo, authz: authz}
}

const maxSupportMessageLen = 2000

// OpenTicket creates a support ticket for the user. A user keeps at most one
// open ticket; opening while one exists returns the existing ticket instead
// of a duplicate. An optional first message seeds the conversation.
func (s *SupportService) OpenTicket(ctx context.Context, userID uint, firstMessage string) (*models.SupportTicket, error) {
	existing, err := s.supportRepo.GetOpenTicketForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ticket := &models.SupportTicket{
		UserID:   userID,
		UserName: user.Username,
		Status:   models.TicketStatusOpen,
	}
	if err := s.supportRepo.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	if msg := strings.TrimSpace(firstMessage); msg != "" {
		if _, err := s.PostMessage(ctx, userID, ticket.ID, msg); err != nil {
			return nil, err
		}
	}

	observability.ModerationEventsTotal.WithLabelValues("ticket_opened").Inc()
	slog.InfoContext(ctx, "support ticket opened", "ticket_id", ticket.ID)
	return ticket, nil
}

// MyTicket returns the caller's open ticket, or nil when none exists.
func (s *SupportService) MyTicket(ctx context.Context, userID uint) (*models.SupportTicket, error) {
	return s.supportRepo.GetOpenTicketForUser(ctx, userID)
}

// ListOpen returns the staff queue of open tickets, newest first.
func (s *SupportService) ListOpen(ctx context.Context, viewerID uint, limit, offset int) ([]models.SupportTicket, error) {
	if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
		return nil, err
	}
	return s.supportRepo.ListOpen(ctx, limit, offset)
}

// GetTicket returns a ticket visible to the viewer: its owner or any staff.
func (s *SupportService) GetTicket(ctx context.Context, viewerID, ticketID uint) (*models.SupportTicket, error) {
	ticket, err := s.supportRepo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, viewerID, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Close marks the ticket closed. Both the owner and staff may close; closing
// an already-closed ticket is a no-op that still succeeds.
func (s *SupportService) Close(ctx context.Context, viewerID, ticketID uint) (*models.SupportTicket, error) {
	ticket, err := s.supportRepo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, viewerID, ticket); err != nil {
		return nil, err
	}

	closed, err := s.supportRepo.CloseIfOpen(ctx, ticketID, viewerID)
	if err != nil {
		return nil, err
	}
	if closed {
		observability.ModerationEventsTotal.WithLabelValues("ticket_closed").Inc()
		slog.InfoContext(ctx, "support ticket closed", "ticket_id", ticketID, "closed_by", viewerID)
	}
	return s.supportRepo.GetTicket(ctx, ticketID)
}

// PostMessage appends a message to an open ticket. Closed tickets reject
// messages.
func (s *SupportService) PostMessage(ctx context.Context, senderID, ticketID uint, content string) (*models.SupportMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if len(content) > maxSupportMessageLen {
		return nil, models.NewValidationError("Message too long (max 2000 characters)")
	}

	ticket, err := s.supportRepo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, senderID, ticket); err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketStatusOpen {
		return nil, models.NewConflictError("Ticket is closed")
	}

	msg := &models.SupportMessage{
		TicketID: ticketID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.supportRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
		msg.Sender = sender
	}
	return msg, nil
}

// Messages returns the ticket's full log in creation order.
func (s *SupportService) Messages(ctx context.Context, viewerID, ticketID uint) ([]models.SupportMessage, error) {
	ticket, err := s.supportRepo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, viewerID, ticket); err != nil {
		return nil, err
	}
	return s.supportRepo.ListMessages(ctx, ticketID)
}

// ensureParticipant admits the ticket owner and any global staff.
func (s *SupportService) ensureParticipant(ctx context.Context, viewerID uint, ticket *models.SupportTicket) error {
	if ticket.UserID == viewerID {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return err
	}
	if !user.IsGlobalStaff() {
		return models.NewForbiddenError("Not a participant of this ticket")
	}
	return nil
}
