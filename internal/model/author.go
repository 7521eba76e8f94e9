package model

import (
	"time"

	"gorm.io/gorm"
)

// Author represents a book author. Deleting an author only sets DeletedAt.
type Author struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:255;not null;index"`
	Biography string         `json:"biography" gorm:"type:text"`
	Photo     string         `json:"photo" gorm:"size:512"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Books []Book `json:"books,omitempty" gorm:"foreignKey:AuthorID"`
}
