// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	all, err := repo.ListBooks()
package books

import (
	"gorm.io/gorm"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

// Repository handles all book table operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooks returns every book row ordered by creation time, newest first.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("created_at DESC").Find(&books).Error
	return books, err
}

// InsertBook creates a single book row.
func (r *Repository) InsertBook(book *entities.Book) error {
	return r.db.Create(book).Error
}

// DeleteBook removes a book row by ID.
func (r *Repository) DeleteBook(id string) error {
	return r.db.Where("id = ?", id).Delete(&entities.Book{}).Error
}

// CountContributionsByUser returns how many catalog books a user submitted.
func (r *Repository) CountContributionsByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("contributor_id = ?", userID).Count(&count).Error
	return count, err
}
