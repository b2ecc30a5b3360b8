package repository

import (
	"context"
	"errors"
	"time"

	"liberty/internal/models"

	"gorm.io/gorm"
)

// SupportRepository defines persistence for support tickets and their
// append-only message logs.
type SupportRepository interface {
	CreateTicket(ctx context.Context, ticket *models.SupportTicket) error
	GetTicket(ctx context.Context, id uint) (*models.SupportTicket, error)
	// GetOpenTicketForUser returns the user's open ticket, or (nil, nil)
	// when none exists.
	GetOpenTicketForUser(ctx context.Context, userID uint) (*models.SupportTicket, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.SupportTicket, error)
	// CloseIfOpen marks the ticket closed, returning false when it was
	// already closed.
	CloseIfOpen(ctx context.Context, id uint, closerID uint) (bool, error)
	CreateMessage(ctx context.Context, msg *models.SupportMessage) error
	ListMessages(ctx context.Context, ticketID uint) ([]models.SupportMessage, error)
}

type supportRepository struct {
	db *gorm.DB
}

// NewSupportRepository returns a new SupportRepository implementation.
func NewSupportRepository(db *gorm.DB) SupportRepository {
	return &supportRepository{db: db}
}

func (r *supportRepository) CreateTicket(ctx context.Context, ticket *models.SupportTicket) error {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *supportRepository) GetTicket(ctx context.Context, id uint) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := r.db.WithContext(ctx).First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Ticket", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &ticket, nil
}

func (r *supportRepository) GetOpenTicketForUser(ctx context.Context, userID uint) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.TicketStatusOpen).
		Order("created_at DESC").
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &ticket, nil
}

func (r *supportRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.TicketStatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tickets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tickets, nil
}

func (r *supportRepository) CloseIfOpen(ctx context.Context, id uint, closerID uint) (bool, error) {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&models.SupportTicket{}).
		Where("id = ? AND status = ?", id, models.TicketStatusOpen).
		Updates(map[string]interface{}{
			"status":            models.TicketStatusClosed,
			"closed_by_user_id": closerID,
			"closed_at":         now,
		})
	if tx.Error != nil {
		return false, models.NewInternalError(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func (r *supportRepository) CreateMessage(ctx context.Context, msg *models.SupportMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *supportRepository) ListMessages(ctx context.Context, ticketID uint) ([]models.SupportMessage, error) {
	var msgs []models.SupportMessage
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Preload("Sender").
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
