// Package profiles provides database operations for user profiles and
// role grants.
//
// # Usage
//
//	repo := profiles.NewRepository(db)
//	profile, err := repo.GetProfileByUserID(userID)
package profiles

import (
	"gorm.io/gorm"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

// Repository handles all profile and role table operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new profiles repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateProfile creates a profile row for a newly registered user.
func (r *Repository) CreateProfile(profile *entities.Profile) error {
	return r.db.Create(profile).Error
}

// GetProfileByUserID retrieves a profile by the owning user's ID.
func (r *Repository) GetProfileByUserID(userID string) (*entities.Profile, error) {
	var profile entities.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListProfiles returns all profiles ordered by registration time.
func (r *Repository) ListProfiles() ([]entities.Profile, error) {
	var profiles []entities.Profile
	err := r.db.Order("created_at ASC").Find(&profiles).Error
	return profiles, err
}

// HasRole reports whether a role row exists for the user.
func (r *Repository) HasRole(userID string, role entities.Role) (bool, error) {
	var count int64
	err := r.db.Model(&entities.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GrantRole assigns a role to a user. Granting an already-held role is
// a no-op.
func (r *Repository) GrantRole(userID string, role entities.Role) error {
	var existing entities.UserRole
	result := r.db.Where("user_id = ? AND role = ?", userID, role).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		return r.db.Create(&entities.UserRole{UserID: userID, Role: role}).Error
	}
	return result.Error
}

// CountProfiles returns the number of registered users.
func (r *Repository) CountProfiles() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Profile{}).Count(&count).Error
	return count, err
}
