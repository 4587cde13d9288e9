package repository

import (
	"errors"

	"github.com/alumnet/alumnet-backend/internal/domain"
	"gorm.io/gorm"
)

// UserRepository is the read-only view of the identity/directory store.
type UserRepository interface {
	FindByID(id uint64) (*domain.User, error)
	ListAlumni(excludeIDs []uint64, offset, limit int) ([]*domain.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID returns a user by ID, nil when absent
func (r *userRepository) FindByID(id uint64) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListAlumni returns approved alumni, excluding the given IDs (used by the
// directory to hide mentor-globally-blocked alumni).
func (r *userRepository) ListAlumni(excludeIDs []uint64, offset, limit int) ([]*domain.User, int64, error) {
	var users []*domain.User
	var total int64

	query := r.db.Model(&domain.User{}).
		Where("role = ? AND status = ?", domain.RoleAlumni, domain.UserStatusApproved)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
