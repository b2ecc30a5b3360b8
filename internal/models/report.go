package models

import "time"

// ReportTargetType identifies what kind of content a report points at.
type ReportTargetType string

const (
	// ReportTargetPost targets a feed post.
	ReportTargetPost ReportTargetType = "post"
	// ReportTargetComment targets a comment.
	ReportTargetComment ReportTargetType = "comment"
	// ReportTargetUser targets a profile.
	ReportTargetUser ReportTargetType = "user"
	// ReportTargetChat targets a global chat message.
	ReportTargetChat ReportTargetType = "chat"
	// ReportTargetCommunity targets a community.
	ReportTargetCommunity ReportTargetType = "community"
)

// Valid reports whether the target type is one of the known kinds.
func (t ReportTargetType) Valid() bool {
	switch t {
	case ReportTargetPost, ReportTargetComment, ReportTargetUser,
		ReportTargetChat, ReportTargetCommunity:
		return true
	}
	return false
}

// ReportStatus is the disposition of a report. Transitions are one-way:
// pending -> resolved or pending -> dismissed. Disputed resolutions require
// a new report, not a reopen.
type ReportStatus string

const (
	// ReportStatusPending indicates the report awaits staff review.
	ReportStatusPending ReportStatus = "pending"
	// ReportStatusResolved indicates staff acted on the report.
	ReportStatusResolved ReportStatus = "resolved"
	// ReportStatusDismissed indicates staff declined the report.
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Terminal reports whether the status permits no further transition.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusResolved || s == ReportStatusDismissed
}

// Report is an abuse report filed against content, a user, or a community.
// TargetID is always the stringified form of the target's native key so
// heterogeneous id types compare uniformly.
type Report struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	ReporterID       uint             `gorm:"not null;index" json:"reporter_id"`
	Reporter         *User            `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	TargetType       ReportTargetType `gorm:"type:varchar(20);not null;index" json:"target_type"`
	TargetID         string           `gorm:"size:64;not null;index" json:"target_id"`
	Reason           string           `gorm:"type:text;not null" json:"reason"`
	Status           ReportStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ResolvedByUserID *uint            `json:"resolved_by_user_id,omitempty"`
	ResolvedByUser   *User            `gorm:"foreignKey:ResolvedByUserID" json:"resolved_by_user,omitempty"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ReportSnapshot is a best-effort, point-in-time copy of reported content
// fetched on demand for staff review. Found is false when the target was
// deleted in the interim; the dashboard renders a "content not found or
// deleted" placeholder in that case.
type ReportSnapshot struct {
	Found          bool   `json:"found"`
	Content        string `json:"content"`
	AuthorID       *uint  `json:"author_id,omitempty"`
	AuthorUsername string `json:"author_username,omitempty"`
}
