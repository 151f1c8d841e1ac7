package entities

import (
	"time"
)

// Book mirrors one row of the books table. ContributorID links to the
// user who submitted the book; it is empty for seed catalog content.
type Book struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Title         string    `gorm:"index;size:512" json:"title"`
	Author        string    `gorm:"index;size:256" json:"author"`
	CoverURL      string    `gorm:"size:2048" json:"cover_url"`
	Content       string    `gorm:"type:text" json:"content"`
	Description   string    `gorm:"size:2048" json:"description"`
	ContributorID string    `gorm:"index;size:36" json:"contributor_id,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// Rating is a user's score for a book. At most one row may exist per
// (book_id, user_id) pair; writes go through an upsert on that key.
type Rating struct {
	BookID    string    `gorm:"primaryKey;size:36" json:"book_id"`
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Rating) TableName() string {
	return "book_ratings"
}
