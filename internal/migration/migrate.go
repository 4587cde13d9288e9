package migration

import (
	"github.com/alumnet/alumnet-backend/internal/domain"
	"gorm.io/gorm"
)

// Run creates all core tables via AutoMigrate. Safe to run multiple times.
//
// The two uniqueness invariants of the core are carried by column tags:
// mentorship_requests.pending_key (one pending request per pair) and
// conversations.unique_key (one direct conversation per unordered pair).
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.MentorshipRequest{},
		&domain.MentorshipBlock{},
		&domain.Conversation{},
		&domain.ConversationParticipant{},
		&domain.Message{},
		&domain.Notification{},
	)
}
