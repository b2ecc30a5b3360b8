package repository

import (
	"context"
	"errors"

	"liberty/internal/models"

	"gorm.io/gorm"
)

// ChatRepository defines the interface for global chat data operations.
type ChatRepository interface {
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	// GetRecent returns the latest messages in ascending order so clients
	// can render history top-down without reversing.
	GetRecent(ctx context.Context, limit int) ([]*models.ChatMessage, error)
	GetMessage(ctx context.Context, id uint) (*models.ChatMessage, error)
	DeleteMessage(ctx context.Context, id uint) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepository) GetRecent(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepository) GetMessage(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *chatRepository) DeleteMessage(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ChatMessage{}, id).Error
}
