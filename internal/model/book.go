package model

import (
	"time"

	"gorm.io/gorm"
)

// Book represents a catalog entry. Deleting a book only sets DeletedAt.
type Book struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"size:255;not null;index"`
	Description string         `json:"description" gorm:"type:text"`
	ISBN        string         `json:"isbn,omitempty" gorm:"size:13;index"`
	Photo       string         `json:"photo" gorm:"size:512"`
	AuthorID    uint           `json:"author_id" gorm:"not null;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author *Author `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
