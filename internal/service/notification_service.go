package service

import (
	"encoding/json"
	"strconv"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/notifier"
	"github.com/alumnet/alumnet-backend/internal/repository"
	"github.com/alumnet/alumnet-backend/pkg/logger"
)

// NotificationService persists notification rows and hands intents to the
// external delivery sink. Dispatch never fails the operation that produced
// the intent: failures are logged and swallowed.
type NotificationService struct {
	repo     *repository.NotificationRepository
	producer *notifier.Producer
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo *repository.NotificationRepository, producer *notifier.Producer) *NotificationService {
	return &NotificationService{repo: repo, producer: producer}
}

// Dispatch stores the notification and publishes the intent fire-and-forget.
func (s *NotificationService) Dispatch(n *domain.Notification) {
	if err := s.repo.Create(n); err != nil {
		logger.Get().Error().Err(err).
			Uint64("recipient_id", n.RecipientID).
			Str("type", n.Type).
			Msg("failed to store notification")
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		logger.Get().Error().Err(err).Msg("failed to marshal notification intent")
		return
	}

	go func() {
		key := []byte(strconv.FormatUint(n.RecipientID, 10))
		if err := s.producer.Publish(key, payload); err != nil {
			logger.Get().Warn().Err(err).
				Uint64("recipient_id", n.RecipientID).
				Str("type", n.Type).
				Msg("failed to publish notification intent")
		}
	}()
}

// UnreadCount returns the unread notification count for a recipient.
func (s *NotificationService) UnreadCount(actor domain.Principal) (int64, error) {
	return s.repo.UnreadCount(actor.ID)
}

// List returns paginated notifications for the actor.
func (s *NotificationService) List(actor domain.Principal, page, limit int) (*domain.NotificationList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit
	items, total, err := s.repo.List(actor.ID, offset, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.UnreadCount(actor.ID)
	if err != nil {
		return nil, err
	}

	return &domain.NotificationList{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Page:        page,
		Limit:       limit,
	}, nil
}

// MarkAsRead marks one notification as read after an ownership check.
func (s *NotificationService) MarkAsRead(actor domain.Principal, id uint64) error {
	n, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if n == nil {
		return common.NotFound("notification not found")
	}
	if n.RecipientID != actor.ID {
		return common.Forbidden("notification belongs to another user")
	}
	return s.repo.MarkAsRead(id)
}

// MarkAllAsRead marks all of the actor's notifications as read.
func (s *NotificationService) MarkAllAsRead(actor domain.Principal) error {
	return s.repo.MarkAllAsRead(actor.ID)
}
