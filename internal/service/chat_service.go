package service

import (
	"context"
	"strings"

	"liberty/internal/models"
	"liberty/internal/repository"
)

// ChatService handles the single global chat room.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	authz    *AuthzService
}

// NewChatService returns a new ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, authz *AuthzService) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo, authz: authz}
}

const (
	maxChatMessageLen  = 1000
	chatHistoryDefault = 100
)

// Post persists a chat message. Banned users are rejected here as well as
// at the websocket gate.
func (s *ChatService) Post(ctx context.Context, userID uint, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if len(content) > maxChatMessageLen {
		return nil, models.NewValidationError("Message too long (max 1000 characters)")
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sender.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot chat")
	}

	msg := &models.ChatMessage{
		Content: content,
		UserID:  userID,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, models.NewInternalError(err)
	}
	msg.User = *sender
	return msg, nil
}

// History returns the most recent messages in ascending order.
func (s *ChatService) History(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = chatHistoryDefault
	}
	return s.chatRepo.GetRecent(ctx, limit)
}

// DeleteMessage removes a chat message; staff only.
func (s *ChatService) DeleteMessage(ctx context.Context, viewerID, messageID uint) error {
	if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
		return err
	}
	if _, err := s.chatRepo.GetMessage(ctx, messageID); err != nil {
		return err
	}
	if err := s.chatRepo.DeleteMessage(ctx, messageID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
