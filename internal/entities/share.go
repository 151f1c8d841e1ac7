package entities

import (
	"time"
)

// ShareActivity records a user sharing a book link on an external
// platform. The book title and user email are denormalized so the
// activity log survives book deletion.
type ShareActivity struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BookID    string    `gorm:"index;size:36" json:"book_id"`
	BookTitle string    `gorm:"size:512" json:"book_title"`
	UserID    string    `gorm:"index;size:36" json:"user_id"`
	UserEmail string    `gorm:"size:255" json:"user_email"`
	Platform  string    `gorm:"size:64" json:"platform"`
	SharedAt  time.Time `gorm:"index" json:"shared_at"`
}

func (ShareActivity) TableName() string {
	return "share_activities"
}
