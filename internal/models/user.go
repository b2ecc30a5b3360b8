// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GlobalRole is a principal-wide authorization tier independent of any community.
type GlobalRole string

const (
	// GlobalRoleCivilian is the default tier for every profile.
	GlobalRoleCivilian GlobalRole = "civilian"
	// GlobalRoleModerator can work the moderation dashboard.
	GlobalRoleModerator GlobalRole = "moderator"
	// GlobalRoleAdmin can work the moderation dashboard and manage users.
	GlobalRoleAdmin GlobalRole = "admin"
	// GlobalRoleOwner is the platform owner; the only tier that reviews staff applications.
	GlobalRoleOwner GlobalRole = "owner"
	// GlobalRoleDeveloper is staff with a developer badge styling.
	GlobalRoleDeveloper GlobalRole = "developer"
	// GlobalRoleInfluencer is a verified non-staff tier.
	GlobalRoleInfluencer GlobalRole = "influencer"
)

// Badge names granted through the application review flow.
const (
	BadgeInfluencer = "influencer"
	BadgeOfficial   = "official"
	BadgeDeveloper  = "developer"
)

// IsStaff reports whether the role grants access to the moderation dashboard.
func (r GlobalRole) IsStaff() bool {
	switch r {
	case GlobalRoleOwner, GlobalRoleAdmin, GlobalRoleModerator, GlobalRoleDeveloper:
		return true
	}
	return false
}

// Valid reports whether the role is one of the known tiers.
func (r GlobalRole) Valid() bool {
	switch r {
	case GlobalRoleCivilian, GlobalRoleModerator, GlobalRoleAdmin,
		GlobalRoleOwner, GlobalRoleDeveloper, GlobalRoleInfluencer:
		return true
	}
	return false
}

// User represents a profile in the Liberty Social application.
// An empty GlobalRole is treated as civilian everywhere.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Name     string `json:"name"`
	// RoleLabel is a free-text department label ("Civilian", "Law Enforcement", ...).
	// It carries no authorization meaning.
	RoleLabel    string                      `gorm:"column:role_label" json:"role_label"`
	GlobalRole   GlobalRole                  `gorm:"type:varchar(20);default:''" json:"global_role"`
	Badges       datatypes.JSONSlice[string] `json:"badges"`
	WarningCount uint                        `gorm:"not null;default:0" json:"warning_count"`
	IsBanned     bool                        `gorm:"not null;default:false" json:"is_banned"`
	BannedAt     *time.Time                  `json:"banned_at,omitempty"`
	BannedReason string                      `gorm:"type:text;default:''" json:"banned_reason,omitempty"`
	Avatar       string                      `json:"avatar"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	DeletedAt    gorm.DeletedAt              `gorm:"index" json:"-"`
	Posts        []Post                      `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// EffectiveGlobalRole maps an unset role to civilian.
func (u *User) EffectiveGlobalRole() GlobalRole {
	if u.GlobalRole == "" {
		return GlobalRoleCivilian
	}
	return u.GlobalRole
}

// IsGlobalStaff reports whether this user may access staff-only operations.
func (u *User) IsGlobalStaff() bool {
	return u.EffectiveGlobalRole().IsStaff()
}

// HasBadge reports whether the badge set contains name.
func (u *User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b == name {
			return true
		}
	}
	return false
}
