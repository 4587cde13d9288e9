package domain

import (
	"fmt"
	"time"
)

// Conversation types
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// Sources that can latch a conversation into the blocked state
const (
	BlockSourceAdminManual     = "admin_manual"
	BlockSourceForceStop       = "mentorship_force_stop"
	BlockSourceMentorshipBlock = "mentorship_block"
)

// Conversation is a messaging thread. For direct conversations UniqueKey is
// the two participant ids sorted and joined, so the unordered pair maps to
// exactly one row. Blocking is one-way: once IsBlocked is set the thread
// accepts no new messages and nothing in this core clears it.
type Conversation struct {
	ID               uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Type             string     `gorm:"column:type;size:10" json:"type"`
	UniqueKey        *string    `gorm:"column:unique_key;size:64;uniqueIndex" json:"-"`
	LastMessageAt    *time.Time `gorm:"column:last_message_at;index" json:"last_message_at,omitempty"`
	IsBlocked        bool       `gorm:"column:is_blocked;default:false" json:"is_blocked"`
	BlockedReason    string     `gorm:"column:blocked_reason;type:text" json:"blocked_reason,omitempty"`
	BlockedSource    string     `gorm:"column:blocked_source;size:30" json:"blocked_source,omitempty"`
	BlockedByAdminID *uint64    `gorm:"column:blocked_by_admin_id" json:"blocked_by_admin_id,omitempty"`
	BlockedAt        *time.Time `gorm:"column:blocked_at" json:"blocked_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Conversation) TableName() string { return "conversations" }

// DirectKey builds the order-independent unique key for a participant pair.
func DirectKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ConversationParticipant is the membership join row. LastReadAt drives the
// unread count (messages newer than it, authored by someone else).
type ConversationParticipant struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ConversationID uint64     `gorm:"column:conversation_id;uniqueIndex:idx_conversation_user" json:"conversation_id"`
	UserID         uint64     `gorm:"column:user_id;uniqueIndex:idx_conversation_user;index" json:"user_id"`
	JoinedAt       time.Time  `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
	LastReadAt     *time.Time `gorm:"column:last_read_at" json:"last_read_at,omitempty"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }

// Message is immutable once created. History ordering is (created_at, id).
type Message struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ConversationID  uint64    `gorm:"column:conversation_id;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID        uint64    `gorm:"column:sender_id;index" json:"sender_id"`
	Content         string    `gorm:"column:content;type:text" json:"content"`
	IsSystemMessage bool      `gorm:"column:is_system_message;default:false" json:"is_system_message"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime;index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// ConversationView is a conversation as returned to one participant.
type ConversationView struct {
	Conversation
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
	UnreadCount int64      `json:"unread_count"`
}

// ConversationSummary is a sidebar entry for the conversation list.
type ConversationSummary struct {
	ConversationView
	Peer *MentorProfile `json:"peer,omitempty"`
}

// SendMessageInput is the request body for sending a message.
type SendMessageInput struct {
	Content string `json:"content" binding:"required"`
}

// CreateDirectInput is the request body for opening a direct conversation.
type CreateDirectInput struct {
	ParticipantID uint64 `json:"participant_id" binding:"required"`
}
