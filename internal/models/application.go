package models

import "time"

// ApplicationType identifies the kind of self-service request.
type ApplicationType string

const (
	// ApplicationTypeVerification requests the influencer badge.
	ApplicationTypeVerification ApplicationType = "verification"
	// ApplicationTypeStaff requests promotion to moderator. Only the owner
	// may review these.
	ApplicationTypeStaff ApplicationType = "staff"
)

// Valid reports whether the application type is known.
func (t ApplicationType) Valid() bool {
	return t == ApplicationTypeVerification || t == ApplicationTypeStaff
}

// ApplicationStatus is the lifecycle state of an application.
// Transitions are one-way: pending -> approved or pending -> rejected.
type ApplicationStatus string

const (
	// ApplicationStatusPending indicates the application awaits review.
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusApproved indicates the application was accepted.
	ApplicationStatusApproved ApplicationStatus = "approved"
	// ApplicationStatusRejected indicates the application was declined.
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application is a user-submitted verification or staff request.
// Content is free-form text combining a link and a reason.
type Application struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	UserID           uint              `gorm:"not null;index" json:"user_id"`
	Applicant        *User             `gorm:"foreignKey:UserID" json:"applicant,omitempty"`
	Type             ApplicationType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Content          string            `gorm:"type:text;not null" json:"content"`
	Status           ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedByUserID *uint             `json:"reviewed_by_user_id,omitempty"`
	ReviewedByUser   *User             `gorm:"foreignKey:ReviewedByUserID" json:"reviewed_by_user,omitempty"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
