package repository

import (
	"errors"

	"github.com/alumnet/alumnet-backend/internal/domain"
	"gorm.io/gorm"
)

// BlockRepository is the moderation block data access interface.
type BlockRepository interface {
	Create(block *domain.MentorshipBlock) error
	FindByID(id uint64) (*domain.MentorshipBlock, error)
	SetActive(id uint64, active bool) (int64, error)
	List(scope string, offset, limit int) ([]*domain.MentorshipBlock, int64, error)
	FindActiveMatch(studentID, alumniID uint64) (*domain.MentorshipBlock, error)
	IsMentorGloballyBlocked(alumniID uint64) (bool, error)
	ActiveGlobalMentorIDs() ([]uint64, error)
}

type blockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new BlockRepository
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

// Create inserts a block row
func (r *blockRepository) Create(block *domain.MentorshipBlock) error {
	return r.db.Create(block).Error
}

// FindByID returns a block by ID, nil when absent
func (r *blockRepository) FindByID(id uint64) (*domain.MentorshipBlock, error) {
	var block domain.MentorshipBlock
	err := r.db.Where("id = ?", id).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

// SetActive flips the active flag. Blocks are never deleted.
func (r *blockRepository) SetActive(id uint64, active bool) (int64, error) {
	result := r.db.Model(&domain.MentorshipBlock{}).
		Where("id = ?", id).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}

// List returns blocks for the admin audit view, optionally filtered by scope
func (r *blockRepository) List(scope string, offset, limit int) ([]*domain.MentorshipBlock, int64, error) {
	var blocks []*domain.MentorshipBlock
	var total int64

	query := r.db.Model(&domain.MentorshipBlock{})
	if scope != "" {
		query = query.Where("scope = ?", scope)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&blocks).Error; err != nil {
		return nil, 0, err
	}
	return blocks, total, nil
}

// FindActiveMatch evaluates the block predicate for a (student, alumni) pair:
// any active block whose scope matches blocks the pair. Returns the first
// matching block or nil.
func (r *blockRepository) FindActiveMatch(studentID, alumniID uint64) (*domain.MentorshipBlock, error) {
	var block domain.MentorshipBlock
	err := r.db.Where("is_active = ?", true).
		Where(
			r.db.Where("scope = ? AND blocked_student_id = ?", domain.BlockScopeStudentGlobal, studentID).
				Or("scope = ? AND blocked_mentor_id = ?", domain.BlockScopeMentorGlobal, alumniID).
				Or("scope = ? AND blocked_student_id = ? AND blocked_mentor_id = ?", domain.BlockScopePair, studentID, alumniID),
		).
		Order("id ASC").
		First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

// IsMentorGloballyBlocked is the read-side predicate consumed by the directory
func (r *blockRepository) IsMentorGloballyBlocked(alumniID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&domain.MentorshipBlock{}).
		Where("scope = ? AND blocked_mentor_id = ? AND is_active = ?",
			domain.BlockScopeMentorGlobal, alumniID, true).
		Count(&count).Error
	return count > 0, err
}

// ActiveGlobalMentorIDs returns all mentor IDs with an active global block
func (r *blockRepository) ActiveGlobalMentorIDs() ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&domain.MentorshipBlock{}).
		Where("scope = ? AND is_active = ?", domain.BlockScopeMentorGlobal, true).
		Pluck("blocked_mentor_id", &ids).Error
	return ids, err
}
