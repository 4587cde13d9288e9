package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/repository"
	"gorm.io/gorm"
)

// MentorshipService owns the request state machine: create, respond, cancel
// and the admin force-stop path with its conversation-blocking cascade.
type MentorshipService struct {
	db            *gorm.DB
	requestRepo   repository.MentorshipRepository
	convRepo      repository.ConversationRepository
	userRepo      repository.UserRepository
	moderation    *ModerationService
	notifications *NotificationService
}

// NewMentorshipService creates a new MentorshipService
func NewMentorshipService(
	db *gorm.DB,
	requestRepo repository.MentorshipRepository,
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	moderation *ModerationService,
	notifications *NotificationService,
) *MentorshipService {
	return &MentorshipService{
		db:            db,
		requestRepo:   requestRepo,
		convRepo:      convRepo,
		userRepo:      userRepo,
		moderation:    moderation,
		notifications: notifications,
	}
}

// CreateRequest opens a pending mentorship request from the acting student to
// an approved alumni. The pending-per-pair uniqueness is decided by the
// database constraint, not by a pre-check, so concurrent duplicates cannot
// slip through.
func (s *MentorshipService) CreateRequest(actor domain.Principal, in *domain.CreateRequestInput) (*domain.MentorshipRequest, error) {
	if actor.Role != domain.RoleStudent {
		return nil, common.Forbidden("only students can request mentorship")
	}
	if actor.Status != domain.UserStatusApproved {
		return nil, common.Forbidden("account is not approved")
	}
	if !domain.ValidRequestType(in.RequestType) {
		return nil, common.Validation("unknown request type")
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) < domain.MinDescriptionLen {
		return nil, common.Validation(fmt.Sprintf("description must be at least %d characters", domain.MinDescriptionLen))
	}

	alumni, err := s.userRepo.FindByID(in.AlumniID)
	if err != nil {
		return nil, err
	}
	if alumni == nil || alumni.Role != domain.RoleAlumni {
		return nil, common.NotFound("alumni not found")
	}
	if !alumni.IsApproved() {
		return nil, common.Validation("alumni account is not approved")
	}

	if block, err := s.moderation.ActiveBlockFor(actor.ID, alumni.ID); err != nil {
		return nil, err
	} else if block != nil {
		return nil, common.Blocked("mentorship requests to this alumni are blocked", block.Reason)
	}

	pendingKey := domain.PendingKeyFor(actor.ID, alumni.ID)
	req := &domain.MentorshipRequest{
		StudentID:   actor.ID,
		AlumniID:    alumni.ID,
		RequestType: in.RequestType,
		Description: description,
		Status:      domain.RequestStatusPending,
		PendingKey:  &pendingKey,
	}
	if err := s.requestRepo.Create(req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, common.Conflict(common.CodeDuplicateRequest, "a pending request to this alumni already exists")
		}
		return nil, err
	}

	s.notifications.Dispatch(&domain.Notification{
		RecipientID: alumni.ID,
		Type:        domain.NotificationMentorshipRequest,
		ReferenceID: req.ID,
		Title:       "New mentorship request",
		Message:     fmt.Sprintf("%s requested %s mentorship", actor.Name, in.RequestType),
	})

	return req, nil
}

// Respond lets the named alumni accept or reject a pending request. Accepting
// does not create a conversation; that stays an explicit client action.
func (s *MentorshipService) Respond(actor domain.Principal, requestID uint64, decision string) (*domain.MentorshipRequest, error) {
	if decision != domain.RequestStatusAccepted && decision != domain.RequestStatusRejected {
		return nil, common.Validation("decision must be accepted or rejected")
	}

	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.AlumniID != actor.ID {
		return nil, common.NotFound("mentorship request not found")
	}
	if !req.IsPending() {
		return nil, common.InvalidTransition("request is no longer pending")
	}

	// The guarded UPDATE is what decides the transition; a concurrent
	// cancel/force-stop makes it affect zero rows.
	affected, err := s.requestRepo.Resolve(requestID, decision)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, common.InvalidTransition("request is no longer pending")
	}

	req, err = s.requestRepo.FindByID(requestID)
	if err != nil {
		return nil, err
	}

	notifType := domain.NotificationMentorshipAccepted
	title := "Mentorship request accepted"
	if decision == domain.RequestStatusRejected {
		notifType = domain.NotificationMentorshipRejected
		title = "Mentorship request rejected"
	}
	s.notifications.Dispatch(&domain.Notification{
		RecipientID: req.StudentID,
		Type:        notifType,
		ReferenceID: req.ID,
		Title:       title,
		Message:     fmt.Sprintf("%s %s your mentorship request", actor.Name, decision),
	})

	return req, nil
}

// Cancel lets the owning student withdraw a pending request.
func (s *MentorshipService) Cancel(actor domain.Principal, requestID uint64) (*domain.MentorshipRequest, error) {
	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.StudentID != actor.ID {
		return nil, common.NotFound("mentorship request not found")
	}
	if !req.IsPending() {
		return nil, common.InvalidTransition("request is no longer pending")
	}

	affected, err := s.requestRepo.Resolve(requestID, domain.RequestStatusCancelled)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, common.InvalidTransition("request is no longer pending")
	}

	return s.requestRepo.FindByID(requestID)
}

// AdminForceStop terminates a pending request unilaterally and blocks an
// existing direct conversation between the pair in the same transaction.
// Calling it again on an already-stopped request is a no-op that returns the
// stored state without a second notification burst.
func (s *MentorshipService) AdminForceStop(actor domain.Principal, requestID uint64, reason string) (*domain.MentorshipRequest, error) {
	if !actor.IsAdmin() {
		return nil, common.Forbidden("admin role required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, common.Validation("stop reason is required")
	}

	var (
		stopped        *domain.MentorshipRequest
		alreadyStopped bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		requests := s.requestRepo.WithTx(tx)
		conversations := s.convRepo.WithTx(tx)

		req, err := requests.FindByIDForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return common.NotFound("mentorship request not found")
		}
		if req.StoppedByAdmin {
			stopped = req
			alreadyStopped = true
			return nil
		}
		if req.Status != domain.RequestStatusPending {
			return common.InvalidTransition("only pending requests can be force-stopped")
		}

		now := time.Now()
		req.Status = domain.RequestStatusCancelled
		req.PendingKey = nil
		req.StoppedByAdmin = true
		req.StopReason = reason
		req.StoppedAt = &now
		req.ReviewedByAdminID = &actor.ID
		req.ReviewedAt = &now
		if err := requests.Save(req); err != nil {
			return err
		}

		// Cascade: block an existing direct conversation between the pair.
		// No conversation is not an error; the stop succeeds regardless.
		conv, err := conversations.FindByUniqueKey(domain.DirectKey(req.StudentID, req.AlumniID))
		if err != nil {
			return err
		}
		if conv != nil {
			if _, err := conversations.Block(conv.ID, domain.BlockSourceForceStop, reason, &actor.ID, now); err != nil {
				return err
			}
		}

		stopped = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyStopped {
		for _, recipient := range []uint64{stopped.StudentID, stopped.AlumniID} {
			s.notifications.Dispatch(&domain.Notification{
				RecipientID: recipient,
				Type:        domain.NotificationMentorshipForceStopped,
				ReferenceID: stopped.ID,
				Title:       "Mentorship stopped by administration",
				Message:     reason,
			})
		}
	}

	return stopped, nil
}

// Get returns a request visible to its two parties and admins.
func (s *MentorshipService) Get(actor domain.Principal, requestID uint64) (*domain.MentorshipRequest, error) {
	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, common.NotFound("mentorship request not found")
	}
	if req.StudentID != actor.ID && req.AlumniID != actor.ID && !actor.IsAdmin() {
		return nil, common.NotFound("mentorship request not found")
	}
	return req, nil
}

// ListForStudent returns the actor's outgoing requests.
func (s *MentorshipService) ListForStudent(actor domain.Principal, status string, page, limit int) ([]*domain.MentorshipRequest, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.requestRepo.ListByStudent(actor.ID, status, (page-1)*limit, limit)
}

// ListForAlumni returns the actor's incoming requests.
func (s *MentorshipService) ListForAlumni(actor domain.Principal, status string, page, limit int) ([]*domain.MentorshipRequest, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.requestRepo.ListByAlumni(actor.ID, status, (page-1)*limit, limit)
}

// AdminList returns all requests for the admin table.
func (s *MentorshipService) AdminList(actor domain.Principal, status string, page, limit int) ([]*domain.MentorshipRequest, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, common.Forbidden("admin role required")
	}
	page, limit = normalizePage(page, limit)
	return s.requestRepo.ListAll(status, (page-1)*limit, limit)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
