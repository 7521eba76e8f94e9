package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"pedbook/internal/cache"
	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
	"pedbook/internal/repository"
)

const authorCacheTTL = 5 * time.Minute

// AuthorInput carries the writable author fields.
type AuthorInput struct {
	Name      string
	Biography string
}

// AuthorService handles author operations.
type AuthorService interface {
	ListAuthors(ctx context.Context, params model.ListParams) (*model.Page[model.Author], error)
	GetAuthor(ctx context.Context, id uint) (*model.Author, error)
	CreateAuthor(ctx context.Context, input AuthorInput) (*model.Author, error)
	UpdateAuthor(ctx context.Context, id uint, input AuthorInput) (*model.Author, error)
	DeleteAuthor(ctx context.Context, id uint) error
	SetAuthorPhoto(ctx context.Context, id uint, filename string, r io.Reader) (*model.Author, error)
}

type authorService struct {
	repo   repository.AuthorRepository
	images ImageStore
	cache  *cache.Client
}

// NewAuthorService creates a new author service.
func NewAuthorService(repo repository.AuthorRepository, images ImageStore, cache *cache.Client) AuthorService {
	return &authorService{
		repo:   repo,
		images: images,
		cache:  cache,
	}
}

func (s *authorService) cacheKey(id uint) string {
	return fmt.Sprintf("author:%d", id)
}

func (s *authorService) ListAuthors(ctx context.Context, params model.ListParams) (*model.Page[model.Author], error) {
	params = params.Normalize()
	authors, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return model.NewPage(authors, total, params), nil
}

// GetAuthor retrieves an author by ID with caching.
func (s *authorService) GetAuthor(ctx context.Context, id uint) (*model.Author, error) {
	var cached model.Author
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	author, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAuthorNotFound)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), author, authorCacheTTL)
	return author, nil
}

func (s *authorService) CreateAuthor(ctx context.Context, input AuthorInput) (*model.Author, error) {
	author := &model.Author{
		Name:      strings.TrimSpace(input.Name),
		Biography: strings.TrimSpace(input.Biography),
	}
	if err := s.repo.Create(ctx, author); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}
	return author, nil
}

func (s *authorService) UpdateAuthor(ctx context.Context, id uint, input AuthorInput) (*model.Author, error) {
	author, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAuthorNotFound)
	}

	author.Name = strings.TrimSpace(input.Name)
	author.Biography = strings.TrimSpace(input.Biography)
	if err := s.repo.Update(ctx, author); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return author, nil
}

// DeleteAuthor soft-deletes an author that no longer has books.
func (s *authorService) DeleteAuthor(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, apperrors.ErrAuthorNotFound)
	}

	books, err := s.repo.CountBooks(ctx, id)
	if err != nil {
		return fmt.Errorf("count author books: %w", err)
	}
	if books > 0 {
		return apperrors.ErrAuthorHasBooks
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrAuthorNotFound)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// SetAuthorPhoto stores a new photo and removes the one it replaces.
func (s *authorService) SetAuthorPhoto(ctx context.Context, id uint, filename string, r io.Reader) (*model.Author, error) {
	author, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAuthorNotFound)
	}

	url, err := s.images.Save(KindAuthors, filename, r)
	if err != nil {
		return nil, err
	}

	previous := author.Photo
	author.Photo = url
	if err := s.repo.Update(ctx, author); err != nil {
		_ = s.images.Remove(url)
		return nil, fmt.Errorf("update author photo: %w", err)
	}
	if previous != "" {
		if err := s.images.Remove(previous); err != nil {
			log.Printf("remove old author photo %s: %v", previous, err)
		}
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return author, nil
}
