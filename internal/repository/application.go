package repository

import (
	"context"
	"errors"
	"time"

	"liberty/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository defines persistence operations for the review queue.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Application, error)
	// ListPending returns the pending queue shaped by the viewer's tier:
	// the owner sees everything, other staff only verification requests.
	// The restriction lives in the query itself so staff applications are
	// never materialized for non-owners.
	ListPending(ctx context.Context, ownerView bool, limit, offset int) ([]models.Application, error)
	// Decide flips a pending application to a terminal status, returning
	// false when it was already decided.
	Decide(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID uint) (bool, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository returns a new ApplicationRepository implementation.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).
		Preload("Applicant").
		First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Application, error) {
	var apps []models.Application
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

func (r *applicationRepository) ListPending(ctx context.Context, ownerView bool, limit, offset int) ([]models.Application, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", models.ApplicationStatusPending)
	if !ownerView {
		query = query.Where("type = ?", models.ApplicationTypeVerification)
	}

	var apps []models.Application
	if err := query.
		Preload("Applicant").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

func (r *applicationRepository) Decide(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID uint) (bool, error) {
	if status != models.ApplicationStatusApproved && status != models.ApplicationStatusRejected {
		return false, models.NewValidationError("status must be approved or rejected")
	}

	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, models.ApplicationStatusPending).
		Updates(map[string]interface{}{
			"status":              status,
			"reviewed_by_user_id": reviewerID,
			"reviewed_at":         now,
		})
	if tx.Error != nil {
		return false, models.NewInternalError(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}
