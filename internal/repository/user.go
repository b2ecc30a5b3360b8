// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"liberty/internal/cache"
	"liberty/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, limit, offset int) ([]models.User, error)
	SetGlobalRole(ctx context.Context, id uint, role models.GlobalRole) error
	SetBadges(ctx context.Context, id uint, badges []string) error
	IncrementWarningCount(ctx context.Context, id uint) (uint, error)
	SetBanned(ctx context.Context, id uint, banned bool, reason string) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.ProfileKey(id)

	err := cache.Aside(ctx, key, &user, cache.ProfileTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, user.ID)
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var users []models.User
	if err := q.Order("username ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) SetGlobalRole(ctx context.Context, id uint, role models.GlobalRole) error {
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("global_role", role).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}

func (r *userRepository) SetBadges(ctx context.Context, id uint, badges []string) error {
	// A plain []string would bind as a raw slice; the JSONSlice conversion
	// routes the value through its JSON valuer so the column stays readable.
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("badges", datatypes.JSONSlice[string](badges)).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}

// IncrementWarningCount bumps the warning counter as a single atomic UPDATE.
// Two staff warning the same user concurrently must both count.
func (r *userRepository) IncrementWarningCount(ctx context.Context, id uint) (uint, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("warning_count", gorm.Expr("warning_count + 1"))
	if tx.Error != nil {
		return 0, models.NewInternalError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return 0, models.NewNotFoundError("User", id)
	}
	cache.InvalidateProfile(ctx, id)

	var user models.User
	if err := r.db.WithContext(ctx).Select("warning_count").First(&user, id).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return user.WarningCount, nil
}

func (r *userRepository) SetBanned(ctx context.Context, id uint, banned bool, reason string) error {
	updates := map[string]interface{}{
		"is_banned":     banned,
		"banned_reason": strings.TrimSpace(reason),
		"banned_at":     gorm.Expr("CURRENT_TIMESTAMP"),
	}
	if !banned {
		updates["banned_reason"] = ""
		updates["banned_at"] = nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}

// Delete removes the profile and every dependent row the account owns.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, del := range []struct {
			cond  string
			model interface{}
		}{
			{"reporter_id = ?", &models.Report{}},
			{"sender_id = ?", &models.SupportMessage{}},
			{"user_id = ?", &models.SupportTicket{}},
			{"user_id = ?", &models.Application{}},
			{"user_id = ?", &models.Comment{}},
			{"user_id = ?", &models.Post{}},
			{"user_id = ?", &models.ChatMessage{}},
			{"user_id = ?", &models.CommunityMembership{}},
		} {
			if err := tx.Where(del.cond, id).Delete(del.model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}
