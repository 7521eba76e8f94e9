package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
	"pedbook/internal/repository"
)

// reminderInterval is the minimum gap between two overdue reminders for one loan.
const reminderInterval = 24 * time.Hour

// LoanRequest describes a loan to open. A zero UserID lends to the caller.
type LoanRequest struct {
	UserID uint
	BookID uint
	Days   int
}

// LoanService handles the loan lifecycle.
type LoanService interface {
	CreateLoan(ctx context.Context, actor Actor, req LoanRequest) (*model.Loan, error)
	ReturnLoan(ctx context.Context, actor Actor, id uint) (*model.Loan, error)
	GetLoan(ctx context.Context, actor Actor, id uint) (*model.Loan, error)
	ListLoans(ctx context.Context, params model.ListParams) (*model.Page[model.Loan], error)
	ListUserLoans(ctx context.Context, userID uint, params model.ListParams) (*model.Page[model.Loan], error)
	DeleteLoan(ctx context.Context, id uint) error
	SendOverdueReminders(ctx context.Context) (int, error)
}

type loanService struct {
	loanRepo repository.LoanRepository
	userRepo repository.UserRepository
	bookRepo repository.BookRepository
	policy   LoanPolicy
	notifier Notifier
	now      func() time.Time
}

// NewLoanService builds a LoanService.
func NewLoanService(
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	bookRepo repository.BookRepository,
	policy LoanPolicy,
	notifier Notifier,
) LoanService {
	if notifier == nil {
		notifier = NoopNotifier
	}
	return &loanService{
		loanRepo: loanRepo,
		userRepo: userRepo,
		bookRepo: bookRepo,
		policy:   policy,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateLoan opens a loan. Readers borrow for themselves; librarians may lend to anyone.
func (s *loanService) CreateLoan(ctx context.Context, actor Actor, req LoanRequest) (*model.Loan, error) {
	userID := req.UserID
	if userID == 0 {
		userID = actor.UserID
	}
	if !actor.CanAccess(userID) {
		return nil, apperrors.ErrForbidden
	}

	days, err := s.policy.LoanDays(req.Days)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	if _, err := s.bookRepo.FindByID(ctx, req.BookID); err != nil {
		return nil, notFound(err, apperrors.ErrBookNotFound)
	}

	now := s.now()
	loan := &model.Loan{
		UserID:   userID,
		BookID:   req.BookID,
		LoanDate: now,
		DueDate:  DueDate(now, days),
	}

	err = s.loanRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.LoanRepository) error {
		if err := repo.LockBorrower(ctx, userID); err != nil {
			return notFound(err, apperrors.ErrUserNotFound)
		}
		_, err := repo.FindActive(ctx, userID, req.BookID)
		if err == nil {
			return apperrors.ErrLoanAlreadyActive
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check active loan: %w", err)
		}
		if err := repo.Create(ctx, loan); err != nil {
			return fmt.Errorf("create loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.loanRepo.FindByID(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("reload loan: %w", err)
	}
	s.policy.Decorate(created, now)
	s.notifier.LoanCreated(ctx, created)
	return created, nil
}

// ReturnLoan closes a loan and persists the fine owed.
func (s *loanService) ReturnLoan(ctx context.Context, actor Actor, id uint) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrLoanNotFound)
	}
	if !actor.CanAccess(loan.UserID) {
		return nil, apperrors.ErrForbidden
	}
	if loan.Returned() {
		return nil, apperrors.ErrLoanAlreadyReturned
	}

	now := s.now()
	loan.ReturnedAt = &now
	loan.Fine = s.policy.Fine(loan.DueDate, now)
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("return loan: %w", err)
	}

	s.policy.Decorate(loan, now)
	s.notifier.LoanReturned(ctx, loan)
	return loan, nil
}

// GetLoan returns a loan visible to its owner or a librarian.
func (s *loanService) GetLoan(ctx context.Context, actor Actor, id uint) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrLoanNotFound)
	}
	if !actor.CanAccess(loan.UserID) {
		return nil, apperrors.ErrForbidden
	}
	s.policy.Decorate(loan, s.now())
	return loan, nil
}

func (s *loanService) ListLoans(ctx context.Context, params model.ListParams) (*model.Page[model.Loan], error) {
	params = params.Normalize()
	now := s.now()
	loans, total, err := s.loanRepo.List(ctx, params, now)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	for i := range loans {
		s.policy.Decorate(&loans[i], now)
	}
	return model.NewPage(loans, total, params), nil
}

// ListUserLoans lists the loans of one user.
func (s *loanService) ListUserLoans(ctx context.Context, userID uint, params model.ListParams) (*model.Page[model.Loan], error) {
	params.UserID = userID
	return s.ListLoans(ctx, params)
}

func (s *loanService) DeleteLoan(ctx context.Context, id uint) error {
	if err := s.loanRepo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrLoanNotFound)
	}
	return nil
}

// SendOverdueReminders notifies the holders of overdue loans and returns how many were reminded.
// Loans whose reminder could not be queued stay unstamped and are retried on the next scan.
func (s *loanService) SendOverdueReminders(ctx context.Context) (int, error) {
	now := s.now()
	loans, err := s.loanRepo.ListOverdueUnreminded(ctx, now, now.Add(-reminderInterval))
	if err != nil {
		return 0, fmt.Errorf("list overdue loans: %w", err)
	}

	sent := 0
	for i := range loans {
		loan := &loans[i]
		s.policy.Decorate(loan, now)
		if !s.notifier.LoanOverdue(ctx, loan) {
			continue
		}
		if err := s.loanRepo.MarkReminded(ctx, loan.ID, now); err != nil {
			log.Printf("mark loan %d reminded: %v", loan.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
