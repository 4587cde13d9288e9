package service

import (
	"errors"
	"strings"
	"time"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/repository"
	"gorm.io/gorm"
)

// SnapshotSize is how many trailing messages a moderation case record gets.
const SnapshotSize = 20

// Realtime is the push side of the conversation service. The hub implements
// it; a nil value disables realtime without affecting persistence.
type Realtime interface {
	MessageCreated(participantIDs []uint64, conversationID uint64, payload interface{})
}

// ConversationService owns direct conversations: idempotent creation, message
// append, read markers, unread counts and the blocking latch.
type ConversationService struct {
	db            *gorm.DB
	convRepo      repository.ConversationRepository
	userRepo      repository.UserRepository
	moderation    *ModerationService
	notifications *NotificationService
	realtime      Realtime
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	db *gorm.DB,
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	moderation *ModerationService,
	notifications *NotificationService,
	realtime Realtime,
) *ConversationService {
	return &ConversationService{
		db:            db,
		convRepo:      convRepo,
		userRepo:      userRepo,
		moderation:    moderation,
		notifications: notifications,
		realtime:      realtime,
	}
}

// GetOrCreateDirect returns the direct conversation for the pair, creating it
// when absent. Creation is race-safe: on a unique-key violation the existing
// row is re-selected, so concurrent callers all land on the same conversation.
func (s *ConversationService) GetOrCreateDirect(actor domain.Principal, participantID uint64) (*domain.ConversationView, error) {
	if participantID == actor.ID {
		return nil, common.Validation("cannot open a conversation with yourself")
	}

	peer, err := s.userRepo.FindByID(participantID)
	if err != nil {
		return nil, err
	}
	if peer == nil {
		return nil, common.NotFound("participant not found")
	}

	key := domain.DirectKey(actor.ID, participantID)
	conv, err := s.convRepo.FindByUniqueKey(key)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		// The moderation predicate gates creation only; an existing thread
		// stays reachable regardless of later blocks. It applies to
		// student↔alumni pairs uniformly, since all direct conversations in
		// this product are mentorship-adjacent.
		if studentID, alumniID, ok := mentorshipPair(actor, peer); ok {
			if block, err := s.moderation.ActiveBlockFor(studentID, alumniID); err != nil {
				return nil, err
			} else if block != nil {
				return nil, common.Blocked("conversations with this user are blocked", block.Reason)
			}
		}

		conv = &domain.Conversation{
			Type:      domain.ConversationDirect,
			UniqueKey: &key,
		}
		if err := s.convRepo.CreateDirect(conv, []uint64{actor.ID, participantID}); err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, err
			}
			// lost the race; the winner's row is the conversation
			conv, err = s.convRepo.FindByUniqueKey(key)
			if err != nil {
				return nil, err
			}
			if conv == nil {
				return nil, common.Conflict(common.CodeDuplicateConversation, "conversation already exists")
			}
		}
	}

	return s.viewFor(conv, actor.ID)
}

// SendMessage appends a message transactionally with the conversation's
// last_message_at, then notifies and publishes fire-and-forget.
func (s *ConversationService) SendMessage(actor domain.Principal, conversationID uint64, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.Validation("message content must not be empty")
	}

	var msg *domain.Message
	err := s.db.Transaction(func(tx *gorm.DB) error {
		conversations := s.convRepo.WithTx(tx)

		conv, err := conversations.FindByIDForUpdate(conversationID)
		if err != nil {
			return err
		}
		if conv == nil {
			return common.NotFound("conversation not found")
		}

		participant, err := conversations.FindParticipant(conversationID, actor.ID)
		if err != nil {
			return err
		}
		if participant == nil {
			return common.Forbidden("not a participant of this conversation")
		}

		if conv.IsBlocked {
			return common.Blocked("conversation is blocked", conv.BlockedReason)
		}

		msg = &domain.Message{
			ConversationID: conversationID,
			SenderID:       actor.ID,
			Content:        content,
			CreatedAt:      time.Now(),
		}
		return conversations.AppendMessage(msg)
	})
	if err != nil {
		return nil, err
	}

	// Side effects never gate success: the message is persisted at this point.
	participants, err := s.convRepo.Participants(conversationID)
	if err == nil {
		ids := make([]uint64, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.UserID)
			if p.UserID != actor.ID {
				s.notifications.Dispatch(&domain.Notification{
					RecipientID: p.UserID,
					Type:        domain.NotificationNewMessage,
					ReferenceID: conversationID,
					Title:       "New message",
					Message:     actor.Name + " sent you a message",
				})
			}
		}
		if s.realtime != nil {
			s.realtime.MessageCreated(ids, conversationID, msg)
		}
	}

	return msg, nil
}

// MarkRead advances the actor's read marker; unread counts follow from it.
func (s *ConversationService) MarkRead(actor domain.Principal, conversationID uint64) error {
	participant, err := s.convRepo.FindParticipant(conversationID, actor.ID)
	if err != nil {
		return err
	}
	if participant == nil {
		return common.NotFound("conversation not found")
	}
	return s.convRepo.MarkRead(conversationID, actor.ID, time.Now())
}

// History returns durable message history ordered by (created_at, id).
func (s *ConversationService) History(actor domain.Principal, conversationID uint64, page, limit int) ([]*domain.Message, int64, error) {
	participant, err := s.convRepo.FindParticipant(conversationID, actor.ID)
	if err != nil {
		return nil, 0, err
	}
	if participant == nil {
		return nil, 0, common.NotFound("conversation not found")
	}
	page, limit = normalizePage(page, limit)
	return s.convRepo.Messages(conversationID, (page-1)*limit, limit)
}

// ListConversations returns the actor's conversations with unread counts and
// the peer's profile, most recently active first.
func (s *ConversationService) ListConversations(actor domain.Principal) ([]*domain.ConversationSummary, error) {
	convs, err := s.convRepo.ListByUser(actor.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		view, err := s.viewFor(conv, actor.ID)
		if err != nil {
			return nil, err
		}
		summary := &domain.ConversationSummary{ConversationView: *view}

		participants, err := s.convRepo.Participants(conv.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range participants {
			if p.UserID == actor.ID {
				continue
			}
			if peer, err := s.userRepo.FindByID(p.UserID); err == nil && peer != nil {
				summary.Peer = &domain.MentorProfile{
					ID:         peer.ID,
					Name:       peer.Name,
					Department: peer.Department,
					Company:    peer.Company,
				}
			}
			break
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// BlockConversation latches a conversation into the blocked state by direct
// admin action. Cascades from force-stop go through the mentorship service's
// transaction instead.
func (s *ConversationService) BlockConversation(actor domain.Principal, conversationID uint64, source, reason string) (*domain.Conversation, error) {
	if !actor.IsAdmin() {
		return nil, common.Forbidden("admin role required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, common.Validation("block reason is required")
	}
	if source == "" {
		source = domain.BlockSourceAdminManual
	}
	if source != domain.BlockSourceAdminManual && source != domain.BlockSourceMentorshipBlock {
		return nil, common.Validation("unknown block source")
	}

	conv, err := s.convRepo.FindByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, common.NotFound("conversation not found")
	}

	// Already blocked stays blocked with its original reason and source.
	if !conv.IsBlocked {
		if _, err := s.convRepo.Block(conversationID, source, reason, &actor.ID, time.Now()); err != nil {
			return nil, err
		}
	}
	return s.convRepo.FindByID(conversationID)
}

// Snapshot returns the last SnapshotSize messages as an ordered array for a
// moderation case record.
func (s *ConversationService) Snapshot(actor domain.Principal, conversationID uint64) ([]*domain.Message, error) {
	if !actor.IsAdmin() {
		return nil, common.Forbidden("admin role required")
	}
	conv, err := s.convRepo.FindByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, common.NotFound("conversation not found")
	}
	return s.convRepo.RecentMessages(conversationID, SnapshotSize)
}

func (s *ConversationService) viewFor(conv *domain.Conversation, userID uint64) (*domain.ConversationView, error) {
	participant, err := s.convRepo.FindParticipant(conv.ID, userID)
	if err != nil {
		return nil, err
	}

	view := &domain.ConversationView{Conversation: *conv}
	if participant != nil {
		view.LastReadAt = participant.LastReadAt
		unread, err := s.convRepo.UnreadCount(conv.ID, userID, participant.LastReadAt)
		if err != nil {
			return nil, err
		}
		view.UnreadCount = unread
	}
	return view, nil
}

// mentorshipPair resolves which side of a direct conversation is the student
// and which the alumni. Pairs that are not student↔alumni fall outside the
// moderation predicate.
func mentorshipPair(actor domain.Principal, peer *domain.User) (studentID, alumniID uint64, ok bool) {
	switch {
	case actor.Role == domain.RoleStudent && peer.Role == domain.RoleAlumni:
		return actor.ID, peer.ID, true
	case actor.Role == domain.RoleAlumni && peer.Role == domain.RoleStudent:
		return peer.ID, actor.ID, true
	}
	return 0, 0, false
}
