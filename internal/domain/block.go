package domain

import "time"

// Block scopes
const (
	BlockScopeStudentGlobal = "student_global"
	BlockScopeMentorGlobal  = "mentor_global"
	BlockScopePair          = "pair_block"
)

// MentorshipBlock is an admin-created denylist entry. Blocks gate future
// request and conversation creation only; they are toggled, never deleted.
type MentorshipBlock struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Scope            string    `gorm:"column:scope;size:20;index" json:"scope"`
	BlockedStudentID *uint64   `gorm:"column:blocked_student_id;index" json:"blocked_student_id,omitempty"`
	BlockedMentorID  *uint64   `gorm:"column:blocked_mentor_id;index" json:"blocked_mentor_id,omitempty"`
	Reason           string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	IsActive         bool      `gorm:"column:is_active;default:true;index" json:"is_active"`
	CreatedByAdminID uint64    `gorm:"column:created_by_admin_id" json:"created_by_admin_id"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MentorshipBlock) TableName() string { return "mentorship_blocks" }

// CreateBlockInput is the admin request body for creating a block.
type CreateBlockInput struct {
	Scope            string  `json:"scope" binding:"required"`
	BlockedStudentID *uint64 `json:"blocked_student_id"`
	BlockedMentorID  *uint64 `json:"blocked_mentor_id"`
	Reason           string  `json:"reason" binding:"required"`
}

// ToggleBlockInput is the admin request body for toggling a block.
type ToggleBlockInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
