package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus filters loan listings.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusOverdue  LoanStatus = "overdue"
)

// Loan records a user borrowing a book for a fixed period.
// Overdue, DaysOverdue and, while the loan is open, Fine are derived at read time.
type Loan struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"user_id" gorm:"not null;index:idx_loans_user_book"`
	BookID         uint            `json:"book_id" gorm:"not null;index:idx_loans_user_book;index"`
	LoanDate       time.Time       `json:"loan_date" gorm:"not null"`
	DueDate        time.Time       `json:"due_date" gorm:"not null;index"`
	ReturnedAt     *time.Time      `json:"returned_at" gorm:"index"`
	Fine           decimal.Decimal `json:"fine" gorm:"type:decimal(10,2);not null;default:0"`
	LastRemindedAt *time.Time      `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Overdue     bool `json:"overdue" gorm:"-"`
	DaysOverdue int  `json:"days_overdue" gorm:"-"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Book *Book `json:"book,omitempty" gorm:"foreignKey:BookID"`
}

// Returned reports whether the book has been brought back.
func (l *Loan) Returned() bool {
	return l.ReturnedAt != nil
}
