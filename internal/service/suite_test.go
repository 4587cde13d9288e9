package service

import (
	"fmt"
	"testing"

	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/migration"
	"github.com/alumnet/alumnet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory sqlite database. A single connection
// serializes concurrent writers, so races in the tests are decided by the
// unique constraints rather than by SQLITE_BUSY.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, migration.Run(db))
	return db
}

// fixture bundles the service graph over one test database plus seeded users.
type fixture struct {
	db *gorm.DB

	users         repository.UserRepository
	requests      repository.MentorshipRepository
	blocks        repository.BlockRepository
	conversations repository.ConversationRepository
	notifications *repository.NotificationRepository

	notificationSvc *NotificationService
	moderation      *ModerationService
	mentorships     *MentorshipService
	convs           *ConversationService

	student     domain.Principal
	student2    domain.Principal
	alumni      domain.Principal
	alumni2     domain.Principal
	admin       domain.Principal
	pendingUser domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{
		db:            db,
		users:         repository.NewUserRepository(db),
		requests:      repository.NewMentorshipRepository(db),
		blocks:        repository.NewBlockRepository(db),
		conversations: repository.NewConversationRepository(db),
		notifications: repository.NewNotificationRepository(db),
	}
	f.notificationSvc = NewNotificationService(f.notifications, nil)
	f.moderation = NewModerationService(f.blocks, f.users)
	f.mentorships = NewMentorshipService(db, f.requests, f.conversations, f.users, f.moderation, f.notificationSvc)
	f.convs = NewConversationService(db, f.conversations, f.users, f.moderation, f.notificationSvc, nil)

	f.student = f.seedUser(t, "Kim Jiwon", domain.RoleStudent, domain.UserStatusApproved, "", "")
	f.student2 = f.seedUser(t, "Lee Minseo", domain.RoleStudent, domain.UserStatusApproved, "", "")
	f.alumni = f.seedUser(t, "Park Hyunwoo", domain.RoleAlumni, domain.UserStatusApproved, "Computer Science", "Naver")
	f.alumni2 = f.seedUser(t, "Choi Seoyeon", domain.RoleAlumni, domain.UserStatusApproved, "Economics", "Kakao")
	f.admin = f.seedUser(t, "Admin", domain.RoleAdmin, domain.UserStatusApproved, "", "")
	f.pendingUser = f.seedUser(t, "Not Approved", domain.RoleStudent, domain.UserStatusPending, "", "")
	return f
}

func (f *fixture) seedUser(t *testing.T, name, role, status, department, company string) domain.Principal {
	t.Helper()
	u := &domain.User{
		Name:       name,
		Email:      fmt.Sprintf("%s@test.local", uuid.NewString()),
		Role:       role,
		Status:     status,
		Department: department,
		Company:    company,
	}
	require.NoError(t, f.db.Create(u).Error)
	return domain.Principal{ID: u.ID, Name: u.Name, Role: u.Role, Status: u.Status}
}

func (f *fixture) validRequestInput(alumniID uint64) *domain.CreateRequestInput {
	return &domain.CreateRequestInput{
		AlumniID:    alumniID,
		RequestType: domain.RequestTypeCareerAdvice,
		Description: "I would like advice on moving into backend engineering.",
	}
}
