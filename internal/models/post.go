package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a feed post, optionally scoped to a community.
type Post struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	ImageURL    string         `json:"image_url"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"user"`
	CommunityID *uint          `gorm:"index" json:"community_id,omitempty"`
	Community   *Community     `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ChatMessage is a message in the single global chat room.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ChatMessage) TableName() string {
	return "chat_messages"
}
