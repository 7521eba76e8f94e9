package service

import (
	"context"
	"errors"
	"io"

	"gorm.io/gorm"

	"pedbook/internal/model"
)

// Actor identifies the caller of an operation that checks ownership.
type Actor struct {
	UserID    uint
	Librarian bool
}

// CanAccess reports whether the actor may act on resources owned by userID.
func (a Actor) CanAccess(userID uint) bool {
	return a.Librarian || a.UserID == userID
}

// Notifier sends user-facing notifications. Implementations must not block the caller.
type Notifier interface {
	Welcome(ctx context.Context, user *model.User)
	LoanCreated(ctx context.Context, loan *model.Loan)
	LoanReturned(ctx context.Context, loan *model.Loan)
	// LoanOverdue reports whether the reminder was queued for delivery.
	LoanOverdue(ctx context.Context, loan *model.Loan) bool
}

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Save(kind, originalName string, r io.Reader) (string, error)
	Remove(url string) error
}

// Upload kinds, also the sub-directories of the upload root.
const (
	KindAuthors = "authors"
	KindBooks   = "books"
	KindUsers   = "users"
)

type noopNotifier struct{}

func (noopNotifier) Welcome(context.Context, *model.User)          {}
func (noopNotifier) LoanCreated(context.Context, *model.Loan)      {}
func (noopNotifier) LoanReturned(context.Context, *model.Loan)     {}
func (noopNotifier) LoanOverdue(context.Context, *model.Loan) bool { return false }

// NoopNotifier discards every notification.
var NoopNotifier Notifier = noopNotifier{}

// notFound translates gorm's missing-row error into the given domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
