package entities

import (
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
)

// Credential is the authentication principal: one row per registered
// account, keyed by an opaque user ID. Display data lives in Profile.
type Credential struct {
	UserID       string    `gorm:"primaryKey;size:36" json:"user_id"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Profile holds the user-facing identity record, separate from the raw
// authentication principal.
type Profile struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"index;size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// UserRole grants a named role to a user. Absence of a row means no
// privilege; the only role currently in use is "admin".
type UserRole struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	Role      Role      `gorm:"primaryKey;size:32" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
