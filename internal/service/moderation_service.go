package service

import (
	"strings"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/repository"
)

// ModerationService owns block records and the pair predicate consulted
// before request and conversation creation. Creating or toggling a block
// never cascades to existing requests or conversations; retroactive effects
// are the force-stop path's job.
type ModerationService struct {
	blockRepo repository.BlockRepository
	userRepo  repository.UserRepository
}

// NewModerationService creates a new ModerationService
func NewModerationService(blockRepo repository.BlockRepository, userRepo repository.UserRepository) *ModerationService {
	return &ModerationService{blockRepo: blockRepo, userRepo: userRepo}
}

// CreateBlock validates the scope/id-presence invariant and inserts an
// active block row.
func (s *ModerationService) CreateBlock(actor domain.Principal, in *domain.CreateBlockInput) (*domain.MentorshipBlock, error) {
	if !actor.IsAdmin() {
		return nil, common.Forbidden("admin role required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, common.Validation("block reason is required")
	}

	switch in.Scope {
	case domain.BlockScopeStudentGlobal:
		if in.BlockedStudentID == nil || in.BlockedMentorID != nil {
			return nil, common.Validation("student_global blocks take exactly blocked_student_id")
		}
	case domain.BlockScopeMentorGlobal:
		if in.BlockedMentorID == nil || in.BlockedStudentID != nil {
			return nil, common.Validation("mentor_global blocks take exactly blocked_mentor_id")
		}
	case domain.BlockScopePair:
		if in.BlockedStudentID == nil || in.BlockedMentorID == nil {
			return nil, common.Validation("pair_block requires both blocked_student_id and blocked_mentor_id")
		}
	default:
		return nil, common.Validation("unknown block scope")
	}

	block := &domain.MentorshipBlock{
		Scope:            in.Scope,
		BlockedStudentID: in.BlockedStudentID,
		BlockedMentorID:  in.BlockedMentorID,
		Reason:           strings.TrimSpace(in.Reason),
		IsActive:         true,
		CreatedByAdminID: actor.ID,
	}
	if err := s.blockRepo.Create(block); err != nil {
		return nil, err
	}
	return block, nil
}

// ToggleBlock flips a block's active flag. No cascade side effects.
func (s *ModerationService) ToggleBlock(actor domain.Principal, blockID uint64, active bool) (*domain.MentorshipBlock, error) {
	if !actor.IsAdmin() {
		return nil, common.Forbidden("admin role required")
	}

	affected, err := s.blockRepo.SetActive(blockID, active)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// distinguish a missing row from an already-set flag
		if block, ferr := s.blockRepo.FindByID(blockID); ferr == nil && block != nil {
			return block, nil
		}
		return nil, common.NotFound("block not found")
	}
	return s.blockRepo.FindByID(blockID)
}

// ListBlocks returns blocks for the admin audit view.
func (s *ModerationService) ListBlocks(actor domain.Principal, scope string, page, limit int) ([]*domain.MentorshipBlock, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, common.Forbidden("admin role required")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.blockRepo.List(scope, (page-1)*limit, limit)
}

// ActiveBlockFor evaluates the block predicate for a (student, alumni) pair.
// Returns the matching block, or nil when the pair is unblocked.
func (s *ModerationService) ActiveBlockFor(studentID, alumniID uint64) (*domain.MentorshipBlock, error) {
	return s.blockRepo.FindActiveMatch(studentID, alumniID)
}

// IsMentorGloballyBlocked is the boolean predicate the directory listing
// consumes to hide globally blocked mentors.
func (s *ModerationService) IsMentorGloballyBlocked(alumniID uint64) (bool, error) {
	return s.blockRepo.IsMentorGloballyBlocked(alumniID)
}

// ListMentors returns approved alumni visible in the directory, excluding
// mentor-globally-blocked ones.
func (s *ModerationService) ListMentors(page, limit int) ([]*domain.MentorProfile, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	blocked, err := s.blockRepo.ActiveGlobalMentorIDs()
	if err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepo.ListAlumni(blocked, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}

	mentors := make([]*domain.MentorProfile, len(users))
	for i, u := range users {
		mentors[i] = &domain.MentorProfile{
			ID:         u.ID,
			Name:       u.Name,
			Department: u.Department,
			Company:    u.Company,
		}
	}
	return mentors, total, nil
}
