package models

import "time"

// CommunityRole defines a member's role inside a single community.
type CommunityRole string

const (
	// CommunityRoleMember is the default role for joined users.
	CommunityRoleMember CommunityRole = "member"
	// CommunityRoleModerator can moderate content in the community.
	CommunityRoleModerator CommunityRole = "moderator"
	// CommunityRoleAdmin can manage the community and its members.
	CommunityRoleAdmin CommunityRole = "admin"
	// CommunityRoleBanned is excluded from posting in the community.
	CommunityRoleBanned CommunityRole = "banned"
)

// CanModerate reports whether the role grants moderation rights for the community.
func (r CommunityRole) CanModerate() bool {
	return r == CommunityRoleAdmin || r == CommunityRoleModerator
}

// Community represents a group/channel namespace.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `json:"image"`
	Banner      string    `json:"banner"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// CommunityMembership maps users to communities and tracks role.
// The creator's admin role is computed at the authorization layer and is
// not required to exist as a row here.
type CommunityMembership struct {
	CommunityID uint          `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	Community   *Community    `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	UserID      uint          `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User        *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        CommunityRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Nickname    string        `gorm:"size:64" json:"nickname"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
