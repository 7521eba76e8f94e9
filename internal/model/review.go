package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating and comment on a book.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_reviews_user_book"`
	BookID    uint      `json:"book_id" gorm:"not null;uniqueIndex:idx_reviews_user_book;index"`
	Rating    int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Book *Book `json:"book,omitempty" gorm:"foreignKey:BookID"`
}

// RatingSummary aggregates the reviews of one book.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Author{},
		&Book{},
		&User{},
		&Loan{},
		&Review{},
	}
}
