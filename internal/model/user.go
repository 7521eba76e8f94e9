package model

import (
	"time"

	"gorm.io/gorm"
)

// Role names a permission level.
type Role string

const (
	RoleReader    Role = "reader"
	RoleLibrarian Role = "librarian"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleReader || r == RoleLibrarian
}

// User represents a library member together with its login credentials.
// Deleting a user only sets DeletedAt so loan and review history keeps its
// borrower; the username stays reserved.
type User struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Username       string         `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Email          *string        `json:"email,omitempty" gorm:"uniqueIndex;size:255"`
	PasswordHash   string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	DisplayName    string         `json:"display_name" gorm:"size:255;not null"`
	ProfileImage   string         `json:"profile_image" gorm:"size:512"`
	FavoriteBookID *uint          `json:"favorite_book_id" gorm:"index"`
	Role           Role           `json:"role" gorm:"size:20;not null;default:'reader'"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	FavoriteBook *Book `json:"favorite_book,omitempty" gorm:"foreignKey:FavoriteBookID"`
}

// EmailAddress returns the user's email or "" when none is set.
func (u *User) EmailAddress() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// IsLibrarian reports whether the user holds the librarian role.
func (u *User) IsLibrarian() bool {
	return u != nil && u.Role == RoleLibrarian
}
