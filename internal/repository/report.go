package repository

import (
	"context"
	"errors"
	"time"

	"liberty/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for the report ledger.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	ListByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error)
	// Transition flips a pending report to a terminal status. It returns
	// false (and no error) when the report was already transitioned, so
	// concurrent staff clicks stay idempotent.
	Transition(ctx context.Context, id uint, status models.ReportStatus, reviewerID uint) (bool, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).
		Preload("Reporter").
		First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *reportRepository) ListByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Preload("Reporter").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) Transition(ctx context.Context, id uint, status models.ReportStatus, reviewerID uint) (bool, error) {
	if !status.Terminal() {
		return false, models.NewValidationError("status must be resolved or dismissed")
	}

	now := time.Now().UTC()
	// Conditioning on status = 'pending' makes the second of two concurrent
	// transitions a no-op instead of a double write.
	tx := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":              status,
			"resolved_by_user_id": reviewerID,
			"resolved_at":         now,
		})
	if tx.Error != nil {
		return false, models.NewInternalError(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}
