package service

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"pedbook/internal/model"
	"pedbook/internal/repository"
)

// MockAuthorRepository is a mock implementation of AuthorRepository.
type MockAuthorRepository struct {
	mock.Mock
}

func (m *MockAuthorRepository) Create(ctx context.Context, author *model.Author) error {
	return m.Called(ctx, author).Error(0)
}

func (m *MockAuthorRepository) Update(ctx context.Context, author *model.Author) error {
	return m.Called(ctx, author).Error(0)
}

func (m *MockAuthorRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAuthorRepository) FindByID(ctx context.Context, id uint) (*model.Author, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Author), args.Error(1)
}

func (m *MockAuthorRepository) FindByName(ctx context.Context, name string) (*model.Author, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Author), args.Error(1)
}

func (m *MockAuthorRepository) List(ctx context.Context, params model.ListParams) ([]model.Author, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Author), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuthorRepository) CountBooks(ctx context.Context, id uint) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockBookRepository is a mock implementation of BookRepository.
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) Create(ctx context.Context, book *model.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *MockBookRepository) Update(ctx context.Context, book *model.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *MockBookRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookRepository) FindByTitleAndAuthor(ctx context.Context, title string, authorID uint) (*model.Book, error) {
	args := m.Called(ctx, title, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookRepository) List(ctx context.Context, params model.ListParams) ([]model.Book, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Book), args.Get(1).(int64), args.Error(2)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, params model.ListParams) ([]model.User, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

// MockLoanRepository is a mock implementation of LoanRepository.
// WithTransaction runs fn against the mock itself.
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	args := m.Called(ctx, loan)
	if args.Error(0) == nil && loan.ID == 0 {
		loan.ID = 1
	}
	return args.Error(0)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *model.Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockLoanRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLoanRepository) FindByID(ctx context.Context, id uint) (*model.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindActive(ctx context.Context, userID, bookID uint) (*model.Loan, error) {
	args := m.Called(ctx, userID, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Loan), args.Error(1)
}

func (m *MockLoanRepository) CountActiveByBook(ctx context.Context, bookID uint) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoanRepository) CountActiveByUser(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, params model.ListParams, now time.Time) ([]model.Loan, int64, error) {
	args := m.Called(ctx, params, now)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Loan), args.Get(1).(int64), args.Error(2)
}

func (m *MockLoanRepository) ListOverdueUnreminded(ctx context.Context, now, remindedBefore time.Time) ([]model.Loan, error) {
	args := m.Called(ctx, now, remindedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Loan), args.Error(1)
}

func (m *MockLoanRepository) MarkReminded(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockLoanRepository) LockBorrower(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockLoanRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.LoanRepository) error) error {
	return fn(ctx, m)
}

// MockReviewRepository is a mock implementation of ReviewRepository.
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *model.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil && review.ID == 0 {
		review.ID = 1
	}
	return args.Error(0)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *model.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) FindByUserAndBook(ctx context.Context, userID, bookID uint) (*model.Review, error) {
	args := m.Called(ctx, userID, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, params model.ListParams) ([]model.Review, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) Summary(ctx context.Context, bookID uint) (*model.RatingSummary, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RatingSummary), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, username string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, userID, username, ttl).Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockNotifier records notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Welcome(ctx context.Context, user *model.User)     { m.Called(ctx, user) }
func (m *MockNotifier) LoanCreated(ctx context.Context, loan *model.Loan)  { m.Called(ctx, loan) }
func (m *MockNotifier) LoanReturned(ctx context.Context, loan *model.Loan) { m.Called(ctx, loan) }

func (m *MockNotifier) LoanOverdue(ctx context.Context, loan *model.Loan) bool {
	return m.Called(ctx, loan).Bool(0)
}

// MockImageStore is a mock implementation of ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(kind, originalName string, r io.Reader) (string, error) {
	args := m.Called(kind, originalName, r)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Remove(url string) error {
	return m.Called(url).Error(0)
}
