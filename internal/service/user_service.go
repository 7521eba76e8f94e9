package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"gorm.io/gorm"

	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
	"pedbook/internal/repository"
)

// ProfileInput carries profile changes; nil fields are left untouched.
type ProfileInput struct {
	DisplayName *string
	Email       *string
}

// UserService exposes domain operations.
type UserService interface {
	ListUsers(ctx context.Context, params model.ListParams) (*model.Page[model.User], error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, id uint, input ProfileInput) (*model.User, error)
	SetFavoriteBook(ctx context.Context, id uint, bookID *uint) (*model.User, error)
	SetProfileImage(ctx context.Context, id uint, filename string, r io.Reader) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type userService struct {
	repo     repository.UserRepository
	bookRepo repository.BookRepository
	loanRepo repository.LoanRepository
	images   ImageStore
}

// NewUserService builds a UserService.
func NewUserService(
	repo repository.UserRepository,
	bookRepo repository.BookRepository,
	loanRepo repository.LoanRepository,
	images ImageStore,
) UserService {
	return &userService{repo: repo, bookRepo: bookRepo, loanRepo: loanRepo, images: images}
}

func (s *userService) ListUsers(ctx context.Context, params model.ListParams) (*model.Page[model.User], error) {
	params = params.Normalize()
	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return model.NewPage(users, total, params), nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uint, input ProfileInput) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			user.Email = nil
		} else {
			if err := ensureEmailFree(ctx, s.repo, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = &email
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// SetFavoriteBook points the user at a book; nil clears the favorite.
func (s *userService) SetFavoriteBook(ctx context.Context, id uint, bookID *uint) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FavoriteBook = nil
	user.FavoriteBookID = nil
	if bookID != nil {
		book, err := s.bookRepo.FindByID(ctx, *bookID)
		if err != nil {
			return nil, notFound(err, apperrors.ErrBookNotFound)
		}
		user.FavoriteBookID = &book.ID
		user.FavoriteBook = book
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update favorite book: %w", err)
	}
	return user, nil
}

func (s *userService) SetProfileImage(ctx context.Context, id uint, filename string, r io.Reader) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Save(KindUsers, filename, r)
	if err != nil {
		return nil, err
	}

	previous := user.ProfileImage
	user.ProfileImage = url
	if err := s.repo.Update(ctx, user); err != nil {
		_ = s.images.Remove(url)
		return nil, fmt.Errorf("update profile image: %w", err)
	}
	if previous != "" {
		if err := s.images.Remove(previous); err != nil {
			log.Printf("remove old profile image %s: %v", previous, err)
		}
	}
	return user, nil
}

// DeleteUser retires a user that holds no books. Returned loans and reviews
// keep referring to the account.
func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.loanRepo.CountActiveByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("count active loans: %w", err)
	}
	if active > 0 {
		return apperrors.ErrUserHasActiveLoans
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrUserNotFound)
	}
	if user.ProfileImage != "" {
		_ = s.images.Remove(user.ProfileImage)
	}
	return nil
}

// ensureEmailFree fails when email belongs to a user other than ownerID.
func ensureEmailFree(ctx context.Context, repo repository.UserRepository, email string, ownerID uint) error {
	existing, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check email: %w", err)
	}
	if existing.ID != ownerID {
		return apperrors.ErrEmailTaken
	}
	return nil
}
