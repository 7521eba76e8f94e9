package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
	"pedbook/internal/repository"
)

// ReviewInput carries a rating and comment.
type ReviewInput struct {
	BookID  uint
	Rating  int
	Comment string
}

// BookReviews is a page of a book's reviews with its rating summary.
type BookReviews struct {
	*model.Page[model.Review]
	Summary *model.RatingSummary `json:"summary"`
}

// ReviewService exposes domain operations.
type ReviewService interface {
	ListReviews(ctx context.Context, params model.ListParams) (*model.Page[model.Review], error)
	ListBookReviews(ctx context.Context, bookID uint, params model.ListParams) (*BookReviews, error)
	GetReview(ctx context.Context, id uint) (*model.Review, error)
	CreateReview(ctx context.Context, actor Actor, input ReviewInput) (*model.Review, error)
	UpdateReview(ctx context.Context, actor Actor, id uint, rating int, comment string) (*model.Review, error)
	DeleteReview(ctx context.Context, actor Actor, id uint) error
}

type reviewService struct {
	repo     repository.ReviewRepository
	bookRepo repository.BookRepository
}

// NewReviewService builds a ReviewService.
func NewReviewService(repo repository.ReviewRepository, bookRepo repository.BookRepository) ReviewService {
	return &reviewService{repo: repo, bookRepo: bookRepo}
}

// ValidateRating checks that a rating lies within 1..5.
func ValidateRating(rating int) error {
	if rating < model.MinRating || rating > model.MaxRating {
		return apperrors.ErrInvalidRating
	}
	return nil
}

func (s *reviewService) ListReviews(ctx context.Context, params model.ListParams) (*model.Page[model.Review], error) {
	params = params.Normalize()
	reviews, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return model.NewPage(reviews, total, params), nil
}

func (s *reviewService) ListBookReviews(ctx context.Context, bookID uint, params model.ListParams) (*BookReviews, error) {
	if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
		return nil, notFound(err, apperrors.ErrBookNotFound)
	}

	params.BookID = bookID
	page, err := s.ListReviews(ctx, params)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.Summary(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}
	return &BookReviews{Page: page, Summary: summary}, nil
}

func (s *reviewService) GetReview(ctx context.Context, id uint) (*model.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrReviewNotFound)
	}
	return review, nil
}

// CreateReview records the actor's review of a book. A user reviews a book once.
func (s *reviewService) CreateReview(ctx context.Context, actor Actor, input ReviewInput) (*model.Review, error) {
	if err := ValidateRating(input.Rating); err != nil {
		return nil, err
	}
	if _, err := s.bookRepo.FindByID(ctx, input.BookID); err != nil {
		return nil, notFound(err, apperrors.ErrBookNotFound)
	}

	_, err := s.repo.FindByUserAndBook(ctx, actor.UserID, input.BookID)
	if err == nil {
		return nil, apperrors.ErrReviewExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check review: %w", err)
	}

	review := &model.Review{
		UserID:  actor.UserID,
		BookID:  input.BookID,
		Rating:  input.Rating,
		Comment: strings.TrimSpace(input.Comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrReviewExists
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return s.GetReview(ctx, review.ID)
}

// UpdateReview lets the author of a review change it.
func (s *reviewService) UpdateReview(ctx context.Context, actor Actor, id uint, rating int, comment string) (*model.Review, error) {
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.UserID {
		return nil, apperrors.ErrForbidden
	}

	review.Rating = rating
	review.Comment = strings.TrimSpace(comment)
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor Actor, id uint) error {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(review.UserID) {
		return apperrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrReviewNotFound)
	}
	return nil
}
