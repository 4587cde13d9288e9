package repository

import (
	"errors"

	"github.com/alumnet/alumnet-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MentorshipRepository is the mentorship request data access interface.
// Create surfaces gorm.ErrDuplicatedKey when the pending-per-pair unique
// index fires; the service treats that as the authoritative conflict signal.
type MentorshipRepository interface {
	WithTx(tx *gorm.DB) MentorshipRepository
	Create(req *domain.MentorshipRequest) error
	FindByID(id uint64) (*domain.MentorshipRequest, error)
	FindByIDForUpdate(id uint64) (*domain.MentorshipRequest, error)
	Resolve(id uint64, status string) (int64, error)
	Save(req *domain.MentorshipRequest) error
	ListByStudent(studentID uint64, status string, offset, limit int) ([]*domain.MentorshipRequest, int64, error)
	ListByAlumni(alumniID uint64, status string, offset, limit int) ([]*domain.MentorshipRequest, int64, error)
	ListAll(status string, offset, limit int) ([]*domain.MentorshipRequest, int64, error)
}

type mentorshipRepository struct {
	db *gorm.DB
}

// NewMentorshipRepository creates a new MentorshipRepository
func NewMentorshipRepository(db *gorm.DB) MentorshipRepository {
	return &mentorshipRepository{db: db}
}

// WithTx returns the repository bound to a transaction
func (r *mentorshipRepository) WithTx(tx *gorm.DB) MentorshipRepository {
	return &mentorshipRepository{db: tx}
}

// Create inserts a new request row
func (r *mentorshipRepository) Create(req *domain.MentorshipRequest) error {
	return r.db.Create(req).Error
}

// FindByID returns a request by ID, nil when absent
func (r *mentorshipRepository) FindByID(id uint64) (*domain.MentorshipRequest, error) {
	var req domain.MentorshipRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate locks the row for the duration of the surrounding transaction
func (r *mentorshipRepository) FindByIDForUpdate(id uint64) (*domain.MentorshipRequest, error) {
	var req domain.MentorshipRequest
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// Resolve moves a pending, not-admin-stopped request into a terminal status
// and clears the pending key in the same statement. The guard in the WHERE
// clause makes the transition race-safe: zero rows affected means the request
// was no longer actionable.
func (r *mentorshipRepository) Resolve(id uint64, status string) (int64, error) {
	result := r.db.Model(&domain.MentorshipRequest{}).
		Where("id = ? AND status = ? AND stopped_by_admin = ?", id, domain.RequestStatusPending, false).
		Updates(map[string]interface{}{
			"status":      status,
			"pending_key": nil,
		})
	return result.RowsAffected, result.Error
}

// Save persists all fields of the request
func (r *mentorshipRepository) Save(req *domain.MentorshipRequest) error {
	return r.db.Save(req).Error
}

func (r *mentorshipRepository) list(query *gorm.DB, offset, limit int) ([]*domain.MentorshipRequest, int64, error) {
	var requests []*domain.MentorshipRequest
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ListByStudent returns the student's requests, optionally filtered by status
func (r *mentorshipRepository) ListByStudent(studentID uint64, status string, offset, limit int) ([]*domain.MentorshipRequest, int64, error) {
	query := r.db.Model(&domain.MentorshipRequest{}).Where("student_id = ?", studentID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return r.list(query, offset, limit)
}

// ListByAlumni returns the alumni's incoming requests, optionally filtered by status
func (r *mentorshipRepository) ListByAlumni(alumniID uint64, status string, offset, limit int) ([]*domain.MentorshipRequest, int64, error) {
	query := r.db.Model(&domain.MentorshipRequest{}).Where("alumni_id = ?", alumniID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return r.list(query, offset, limit)
}

// ListAll returns all requests for the admin table
func (r *mentorshipRepository) ListAll(status string, offset, limit int) ([]*domain.MentorshipRequest, int64, error) {
	query := r.db.Model(&domain.MentorshipRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return r.list(query, offset, limit)
}
