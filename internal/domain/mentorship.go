package domain

import (
	"fmt"
	"time"
)

// Mentorship request statuses
const (
	RequestStatusPending   = "pending"
	RequestStatusAccepted  = "accepted"
	RequestStatusRejected  = "rejected"
	RequestStatusCancelled = "cancelled"
)

// Mentorship request types (guidance categories)
const (
	RequestTypeCareerAdvice    = "career_advice"
	RequestTypeResumeReview    = "resume_review"
	RequestTypeInterviewPrep   = "interview_prep"
	RequestTypeIndustryInsight = "industry_insight"
	RequestTypeGeneralGuidance = "general_guidance"
)

// ValidRequestType reports whether t is a known guidance category.
func ValidRequestType(t string) bool {
	switch t {
	case RequestTypeCareerAdvice, RequestTypeResumeReview, RequestTypeInterviewPrep,
		RequestTypeIndustryInsight, RequestTypeGeneralGuidance:
		return true
	}
	return false
}

// MinDescriptionLen is the minimum length of a request description.
const MinDescriptionLen = 10

// MentorshipRequest is a directed edge student→alumni asking for guidance.
//
// PendingKey holds "<student_id>:<alumni_id>" while the request is pending and
// NULL afterwards. The unique index on it enforces "at most one pending request
// per pair"; NULL values never collide, so resolved requests accumulate freely.
// MySQL has no partial unique indexes, hence the sentinel column.
type MentorshipRequest struct {
	ID                uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StudentID         uint64     `gorm:"column:student_id;index" json:"student_id"`
	AlumniID          uint64     `gorm:"column:alumni_id;index" json:"alumni_id"`
	RequestType       string     `gorm:"column:request_type;size:30" json:"request_type"`
	Description       string     `gorm:"column:description;type:text" json:"description"`
	Status            string     `gorm:"column:status;size:20;index" json:"status"`
	PendingKey        *string    `gorm:"column:pending_key;size:64;uniqueIndex" json:"-"`
	StoppedByAdmin    bool       `gorm:"column:stopped_by_admin;default:false" json:"stopped_by_admin"`
	StopReason        string     `gorm:"column:stop_reason;type:text" json:"stop_reason,omitempty"`
	StoppedAt         *time.Time `gorm:"column:stopped_at" json:"stopped_at,omitempty"`
	ReviewedByAdminID *uint64    `gorm:"column:reviewed_by_admin_id" json:"reviewed_by_admin_id,omitempty"`
	ReviewedAt        *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (MentorshipRequest) TableName() string { return "mentorship_requests" }

// PendingKeyFor builds the sentinel value for a pending (student, alumni) pair.
func PendingKeyFor(studentID, alumniID uint64) string {
	return fmt.Sprintf("%d:%d", studentID, alumniID)
}

// IsPending reports whether the request is still actionable by its parties.
func (r *MentorshipRequest) IsPending() bool {
	return r.Status == RequestStatusPending && !r.StoppedByAdmin
}

// CreateRequestInput is the request body for creating a mentorship request.
type CreateRequestInput struct {
	AlumniID    uint64 `json:"alumni_id" binding:"required"`
	RequestType string `json:"request_type" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// RespondInput is the request body for an alumni decision.
type RespondInput struct {
	Decision string `json:"decision" binding:"required"`
}

// ForceStopInput is the request body for an admin force-stop.
type ForceStopInput struct {
	Reason string `json:"reason" binding:"required"`
}
