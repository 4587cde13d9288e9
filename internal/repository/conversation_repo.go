package repository

import (
	"errors"
	"time"

	"github.com/alumnet/alumnet-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepository is the conversation/message data access interface.
// CreateDirect surfaces gorm.ErrDuplicatedKey when the unique_key index
// fires; the service re-selects the existing row on that signal.
type ConversationRepository interface {
	WithTx(tx *gorm.DB) ConversationRepository
	CreateDirect(conv *domain.Conversation, participantIDs []uint64) error
	FindByID(id uint64) (*domain.Conversation, error)
	FindByIDForUpdate(id uint64) (*domain.Conversation, error)
	FindByUniqueKey(key string) (*domain.Conversation, error)
	FindParticipant(conversationID, userID uint64) (*domain.ConversationParticipant, error)
	Participants(conversationID uint64) ([]*domain.ConversationParticipant, error)
	ListByUser(userID uint64) ([]*domain.Conversation, error)
	Block(conversationID uint64, source, reason string, adminID *uint64, at time.Time) (int64, error)
	AppendMessage(msg *domain.Message) error
	Messages(conversationID uint64, offset, limit int) ([]*domain.Message, int64, error)
	RecentMessages(conversationID uint64, n int) ([]*domain.Message, error)
	CountMessages(conversationID uint64) (int64, error)
	UnreadCount(conversationID, userID uint64, since *time.Time) (int64, error)
	MarkRead(conversationID, userID uint64, at time.Time) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// WithTx returns the repository bound to a transaction
func (r *conversationRepository) WithTx(tx *gorm.DB) ConversationRepository {
	return &conversationRepository{db: tx}
}

// CreateDirect inserts the conversation and both participant rows atomically
func (r *conversationRepository) CreateDirect(conv *domain.Conversation, participantIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		now := time.Now()
		for _, uid := range participantIDs {
			p := &domain.ConversationParticipant{
				ConversationID: conv.ID,
				UserID:         uid,
				JoinedAt:       now,
			}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *conversationRepository) find(query *gorm.DB) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := query.First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// FindByID returns a conversation by ID, nil when absent
func (r *conversationRepository) FindByID(id uint64) (*domain.Conversation, error) {
	return r.find(r.db.Where("id = ?", id))
}

// FindByIDForUpdate locks the conversation row for the surrounding transaction
func (r *conversationRepository) FindByIDForUpdate(id uint64) (*domain.Conversation, error) {
	return r.find(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByUniqueKey returns the direct conversation for a pair key, nil when absent
func (r *conversationRepository) FindByUniqueKey(key string) (*domain.Conversation, error) {
	return r.find(r.db.Where("unique_key = ?", key))
}

// FindParticipant returns the membership row, nil when the user is not a participant
func (r *conversationRepository) FindParticipant(conversationID, userID uint64) (*domain.ConversationParticipant, error) {
	var p domain.ConversationParticipant
	err := r.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Participants returns all membership rows of a conversation
func (r *conversationRepository) Participants(conversationID uint64) ([]*domain.ConversationParticipant, error) {
	var participants []*domain.ConversationParticipant
	err := r.db.Where("conversation_id = ?", conversationID).Find(&participants).Error
	return participants, err
}

// ListByUser returns the user's conversations, most recently active first
func (r *conversationRepository) ListByUser(userID uint64) ([]*domain.Conversation, error) {
	var convs []*domain.Conversation
	err := r.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.last_message_at DESC").
		Find(&convs).Error
	return convs, err
}

// Block latches the conversation into the blocked state. The is_blocked guard
// keeps the first block's reason and source; repeated blocks are no-ops.
func (r *conversationRepository) Block(conversationID uint64, source, reason string, adminID *uint64, at time.Time) (int64, error) {
	result := r.db.Model(&domain.Conversation{}).
		Where("id = ? AND is_blocked = ?", conversationID, false).
		Updates(map[string]interface{}{
			"is_blocked":          true,
			"blocked_reason":      reason,
			"blocked_source":      source,
			"blocked_by_admin_id": adminID,
			"blocked_at":          at,
		})
	return result.RowsAffected, result.Error
}

// AppendMessage inserts the message and advances last_message_at in one
// transaction, so history and the sidebar ordering never drift.
func (r *conversationRepository) AppendMessage(msg *domain.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("last_message_at", msg.CreatedAt).Error
	})
}

// Messages returns durable history ordered by (created_at, id)
func (r *conversationRepository) Messages(conversationID uint64, offset, limit int) ([]*domain.Message, int64, error) {
	var messages []*domain.Message
	var total int64

	query := r.db.Model(&domain.Message{}).Where("conversation_id = ?", conversationID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// RecentMessages returns the last n messages oldest-first, for moderation
// case snapshots.
func (r *conversationRepository) RecentMessages(conversationID uint64, n int) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CountMessages returns the number of messages in a conversation
func (r *conversationRepository) CountMessages(conversationID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

// UnreadCount counts messages newer than since authored by someone other than
// the reader. A nil since means the reader has never read the conversation.
func (r *conversationRepository) UnreadCount(conversationID, userID uint64, since *time.Time) (int64, error) {
	var count int64
	query := r.db.Model(&domain.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}
	err := query.Count(&count).Error
	return count, err
}

// MarkRead advances the participant's read marker
func (r *conversationRepository) MarkRead(conversationID, userID uint64, at time.Time) error {
	return r.db.Model(&domain.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", at).Error
}
