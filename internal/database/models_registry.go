package database

import "liberty/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.ChatMessage{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.Report{},
		&models.Application{},
		&models.SupportTicket{},
		&models.SupportMessage{},
	}
}
