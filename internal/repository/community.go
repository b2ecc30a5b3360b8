package repository

import (
	"context"
	"errors"
	"strings"

	"liberty/internal/cache"
	"liberty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository defines the interface for community data operations.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	List(ctx context.Context, limit, offset int) ([]*models.Community, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id uint) error
	// GetMembership returns (nil, nil) when the user has no membership row.
	GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error)
	UpsertMembership(ctx context.Context, membership *models.CommunityMembership) error
	RemoveMembership(ctx context.Context, communityID, userID uint) error
	ListMembers(ctx context.Context, communityID uint, limit, offset int) ([]*models.CommunityMembership, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new community repository.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Create(community).Error
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	err := cache.Aside(ctx, cache.CommunityKey(id), &community, cache.CommunityTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Creator").
			First(&community, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Community", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	if err := r.db.WithContext(ctx).Save(community).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, community.ID)
	return nil
}

func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("community_id = ?", id).Update("community_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Community{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, id)
	return nil
}

func (r *communityRepository) GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error) {
	var membership models.CommunityMembership
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &membership, nil
}

func (r *communityRepository) UpsertMembership(ctx context.Context, membership *models.CommunityMembership) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "nickname", "updated_at"}),
		}).
		Create(membership).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) RemoveMembership(ctx context.Context, communityID, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMembership{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) ListMembers(ctx context.Context, communityID uint, limit, offset int) ([]*models.CommunityMembership, error) {
	var members []*models.CommunityMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("community_id = ?", communityID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&members).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}
