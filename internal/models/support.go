package models

import "time"

// TicketStatus is the lifecycle state of a support ticket.
// The only transition is open -> closed; closing is final.
type TicketStatus string

const (
	// TicketStatusOpen indicates the ticket accepts messages.
	TicketStatusOpen TicketStatus = "open"
	// TicketStatusClosed indicates the conversation is over.
	TicketStatusClosed TicketStatus = "closed"
)

// SupportTicket is a two-party support conversation container between the
// requesting user and any staff member. UserName is denormalized so the
// staff queue renders without a join.
type SupportTicket struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;index" json:"user_id"`
	User           *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	UserName       string       `gorm:"size:120" json:"user_name"`
	Status         TicketStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	ClosedByUserID *uint        `json:"closed_by_user_id,omitempty"`
	ClosedAt       *time.Time   `json:"closed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// SupportMessage is one entry in a ticket's append-only message log.
// Messages are never edited or deleted and are listed ascending by creation
// time.
type SupportMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"not null;index" json:"ticket_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
