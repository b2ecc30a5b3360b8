// Package bootstrap wires up runtime dependencies shared by the server and
// CLI commands: database, Redis, the development owner account, and built-in
// communities.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"liberty/internal/cache"
	"liberty/internal/config"
	"liberty/internal/database"
	"liberty/internal/models"
	"liberty/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime connects to DB and Redis and optionally runs built-in seeding.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevOwner(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development owner: %w", err)
	}

	if opts.SeedBuiltIns {
		if err := seed.Communities(db, 1); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in communities: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevOwner guarantees user ID 1 holds the owner tier in development.
// Staff applications are unreviewable until an owner exists, so a fresh dev
// database gets one on boot.
func ensureDevOwner(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapOwner {
		return nil
	}

	username := strings.TrimSpace(cfg.DevOwnerUsername)
	if username == "" {
		username = "liberty_owner"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevOwnerEmail))
	if email == "" {
		email = "owner@liberty.local"
	}
	password := cfg.DevOwnerPassword
	if password == "" {
		return fmt.Errorf("DEV_OWNER_PASSWORD must be set when DEV_BOOTSTRAP_OWNER is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash owner password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var owner models.User
		findErr := tx.First(&owner, 1).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			owner = models.User{
				ID:         1,
				Username:   username,
				Email:      email,
				Password:   string(hashedPassword),
				Name:       username,
				RoleLabel:  "Owner",
				GlobalRole: models.GlobalRoleOwner,
			}
			if err := tx.Create(&owner).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{"global_role": models.GlobalRoleOwner}
			if err := tx.Model(&models.User{}).Where("id = ?", 1).Updates(updates).Error; err != nil {
				return err
			}
		}

		// Ensure users ID sequence is not behind explicit ID insertion.
		// This is PostgreSQL-specific.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(`
				SELECT setval(
					pg_get_serial_sequence('users', 'id'),
					GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1),
					true
				)
			`).Error; err != nil {
				return fmt.Errorf("failed to reset users sequence: %w", err)
			}
		}

		return nil
	}); err != nil {
		return err
	}

	log.Printf("development owner bootstrap ensured for user ID 1 (%s)", email)
	return nil
}
