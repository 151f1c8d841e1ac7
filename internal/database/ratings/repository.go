// Package ratings provides database operations for book ratings.
//
// The (book_id, user_id) pair is the table's composite primary key;
// writes go through an upsert so a user re-rating a book overwrites
// their previous score instead of adding a second row.
package ratings

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

// Repository handles all rating table operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ratings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListRatings returns every rating row.
func (r *Repository) ListRatings() ([]entities.Rating, error) {
	var ratings []entities.Rating
	err := r.db.Find(&ratings).Error
	return ratings, err
}

// UpsertRating inserts a rating, or overwrites the existing score when
// the (book_id, user_id) pair is already present.
func (r *Repository) UpsertRating(bookID, userID string, rating int) error {
	row := entities.Rating{
		BookID: bookID,
		UserID: userID,
		Rating: rating,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(&row).Error
}

// GetRating returns the single rating for a (book, user) pair.
func (r *Repository) GetRating(bookID, userID string) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.db.Where("book_id = ? AND user_id = ?", bookID, userID).First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
