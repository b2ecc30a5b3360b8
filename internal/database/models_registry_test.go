package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPersistentModelsMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	assert.NoError(t, db.AutoMigrate(PersistentModels()...))

	for _, table := range []string{
		"users", "posts", "comments", "chat_messages",
		"communities", "community_memberships",
		"reports", "applications", "support_tickets", "support_messages",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}
