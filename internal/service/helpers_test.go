package service

import (
	"testing"

	"liberty/internal/database"
	"liberty/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// seedUser inserts a user with the given role and returns it.
func seedUser(t *testing.T, db *gorm.DB, username string, role models.GlobalRole) *models.User {
	t.Helper()
	user := &models.User{
		Username:   username,
		Email:      username + "@liberty.local",
		Password:   "x",
		Name:       username,
		GlobalRole: role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
