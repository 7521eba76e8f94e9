package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pedbook/internal/model"
)

// LoanRepository defines loan persistence operations.
type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	Update(ctx context.Context, loan *model.Loan) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Loan, error)
	FindActive(ctx context.Context, userID, bookID uint) (*model.Loan, error)
	CountActiveByBook(ctx context.Context, bookID uint) (int64, error)
	CountActiveByUser(ctx context.Context, userID uint) (int64, error)
	List(ctx context.Context, params model.ListParams, now time.Time) ([]model.Loan, int64, error)
	ListOverdueUnreminded(ctx context.Context, now, remindedBefore time.Time) ([]model.Loan, error)
	MarkReminded(ctx context.Context, id uint, at time.Time) error
	// LockBorrower row-locks the user until the surrounding transaction ends.
	LockBorrower(ctx context.Context, userID uint) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo LoanRepository) error) error
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository.
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User", withDeleted).Preload("Book", withDeleted).Preload("Book.Author", withDeleted)
}

// Create creates a new loan record.
func (r *loanRepository) Create(ctx context.Context, loan *model.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(loan).Error
}

// Update saves a loan without touching its user or book.
func (r *loanRepository) Update(ctx context.Context, loan *model.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(loan).Error
}

// Delete removes a loan record.
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Loan{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a loan by ID with its user and book.
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*model.Loan, error) {
	var loan model.Loan
	if err := r.withRelations(r.db.WithContext(ctx)).First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindActive finds the unreturned loan of a book held by a user.
func (r *loanRepository) FindActive(ctx context.Context, userID, bookID uint) (*model.Loan, error) {
	var loan model.Loan
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND returned_at IS NULL", userID, bookID).
		First(&loan).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// CountActiveByBook counts unreturned loans of a book.
func (r *loanRepository) CountActiveByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Loan{}).
		Where("book_id = ? AND returned_at IS NULL", bookID).
		Count(&count).Error
	return count, err
}

// CountActiveByUser counts unreturned loans held by a user.
func (r *loanRepository) CountActiveByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Loan{}).
		Where("user_id = ? AND returned_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// List returns one page of loans, newest first.
func (r *loanRepository) List(ctx context.Context, params model.ListParams, now time.Time) ([]model.Loan, int64, error) {
	var (
		loans []model.Loan
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Loan{})
	if params.UserID != 0 {
		q = q.Where("user_id = ?", params.UserID)
	}
	if params.BookID != 0 {
		q = q.Where("book_id = ?", params.BookID)
	}
	switch params.Status {
	case model.LoanStatusActive:
		q = q.Where("returned_at IS NULL")
	case model.LoanStatusReturned:
		q = q.Where("returned_at IS NOT NULL")
	case model.LoanStatusOverdue:
		q = q.Where("returned_at IS NULL AND due_date < ?", now)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.withRelations(q.Scopes(paginate(params))).Order("loan_date DESC, id DESC").Find(&loans).Error; err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// ListOverdueUnreminded lists open overdue loans not reminded since remindedBefore.
func (r *loanRepository) ListOverdueUnreminded(ctx context.Context, now, remindedBefore time.Time) ([]model.Loan, error) {
	var loans []model.Loan
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("returned_at IS NULL AND due_date < ?", now).
		Where("last_reminded_at IS NULL OR last_reminded_at < ?", remindedBefore).
		Order("due_date ASC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// MarkReminded stamps the time of the last overdue reminder.
func (r *loanRepository) MarkReminded(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Loan{}).
		Where("id = ?", id).
		Update("last_reminded_at", at).Error
}

// LockBorrower takes SELECT ... FOR UPDATE on the user row, so loan checks for
// the same borrower run one at a time. SQLite ignores the locking clause; its
// writers are already serialized.
func (r *loanRepository) LockBorrower(ctx context.Context, userID uint) error {
	var user model.User
	return r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").First(&user, userID).Error
}

// WithTransaction executes a function within a database transaction.
func (r *loanRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo LoanRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &loanRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
