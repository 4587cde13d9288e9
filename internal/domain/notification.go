package domain

import "time"

// Notification types
const (
	NotificationMentorshipRequest      = "mentorship_request"
	NotificationMentorshipAccepted     = "mentorship_accepted"
	NotificationMentorshipRejected     = "mentorship_rejected"
	NotificationMentorshipForceStopped = "mentorship_force_stopped"
	NotificationNewMessage             = "new_message"
)

// Notification is a typed intent produced by the core. Delivery lives in the
// external sink; only the read/unread flag stays here because unread counts
// are computed from it.
type Notification struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RecipientID uint64    `gorm:"column:recipient_id;index" json:"recipient_id"`
	Type        string    `gorm:"column:type;size:40" json:"type"`
	ReferenceID uint64    `gorm:"column:reference_id" json:"reference_id"`
	Title       string    `gorm:"column:title;size:200" json:"title"`
	Message     string    `gorm:"column:message;type:text" json:"message"`
	Metadata    string    `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
	IsRead      bool      `gorm:"column:is_read;default:false;index" json:"is_read"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationList is a paginated notification response.
type NotificationList struct {
	Items       []Notification `json:"items"`
	Total       int64          `json:"total"`
	UnreadCount int64          `json:"unread_count"`
	Page        int            `json:"page"`
	Limit       int            `json:"limit"`
}
