// Package shares provides database operations for the share activity log.
package shares

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

// Repository handles all share activity table operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new shares repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordShare appends one share activity row.
func (r *Repository) RecordShare(activity *entities.ShareActivity) error {
	return r.db.Create(activity).Error
}

// ListShares returns all share activities, newest first.
func (r *Repository) ListShares() ([]entities.ShareActivity, error) {
	var activities []entities.ShareActivity
	err := r.db.Order("shared_at DESC").Find(&activities).Error
	return activities, err
}

// CountShares returns the total number of recorded shares.
func (r *Repository) CountShares() (int64, error) {
	var count int64
	err := r.db.Model(&entities.ShareActivity{}).Count(&count).Error
	return count, err
}

// DeleteOldShares removes share rows older than the retention window and
// returns how many were deleted.
func (r *Repository) DeleteOldShares(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.Where("shared_at < ?", cutoff).Delete(&entities.ShareActivity{})
	return result.RowsAffected, result.Error
}
