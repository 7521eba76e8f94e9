package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/moraes/isbn"

	"pedbook/internal/cache"
	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
	"pedbook/internal/repository"
)

const bookCacheTTL = 5 * time.Minute

// BookInput carries the writable book fields.
type BookInput struct {
	Title       string
	Description string
	ISBN        string
	AuthorID    uint
}

// BookService handles book operations.
type BookService interface {
	ListBooks(ctx context.Context, params model.ListParams) (*model.Page[model.Book], error)
	GetBook(ctx context.Context, id uint) (*model.Book, error)
	CreateBook(ctx context.Context, input BookInput) (*model.Book, error)
	UpdateBook(ctx context.Context, id uint, input BookInput) (*model.Book, error)
	DeleteBook(ctx context.Context, id uint) error
	SetBookPhoto(ctx context.Context, id uint, filename string, r io.Reader) (*model.Book, error)
}

type bookService struct {
	repo     repository.BookRepository
	loanRepo repository.LoanRepository
	authors  AuthorService
	images   ImageStore
	cache    *cache.Client
}

// NewBookService creates a new book service.
func NewBookService(
	repo repository.BookRepository,
	loanRepo repository.LoanRepository,
	authors AuthorService,
	images ImageStore,
	cache *cache.Client,
) BookService {
	return &bookService{
		repo:     repo,
		loanRepo: loanRepo,
		authors:  authors,
		images:   images,
		cache:    cache,
	}
}

func (s *bookService) cacheKey(id uint) string {
	return fmt.Sprintf("book:%d", id)
}

// NormalizeISBN strips separators and validates the checksum. An empty ISBN is allowed.
func NormalizeISBN(raw string) (string, error) {
	cleaned := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw)))
	if cleaned == "" {
		return "", nil
	}
	if !isbn.Validate(cleaned) {
		return "", apperrors.ErrInvalidISBN
	}
	return cleaned, nil
}

func (s *bookService) ListBooks(ctx context.Context, params model.ListParams) (*model.Page[model.Book], error) {
	params = params.Normalize()
	books, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return model.NewPage(books, total, params), nil
}

// GetBook retrieves a book by ID with caching. The cached row does not embed the
// author; it is attached from the author cache so author edits show up immediately.
func (s *bookService) GetBook(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if !s.cache.GetJSON(ctx, s.cacheKey(id), &book) {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, notFound(err, apperrors.ErrBookNotFound)
		}
		book = *found
		book.Author = nil
		s.cache.SetJSON(ctx, s.cacheKey(id), &book, bookCacheTTL)
	}

	if author, err := s.authors.GetAuthor(ctx, book.AuthorID); err == nil {
		book.Author = author
	}
	return &book, nil
}

func (s *bookService) validate(ctx context.Context, input BookInput) (string, error) {
	code, err := NormalizeISBN(input.ISBN)
	if err != nil {
		return "", err
	}
	if _, err := s.authors.GetAuthor(ctx, input.AuthorID); err != nil {
		return "", err
	}
	return code, nil
}

func (s *bookService) CreateBook(ctx context.Context, input BookInput) (*model.Book, error) {
	code, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	book := &model.Book{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		ISBN:        code,
		AuthorID:    input.AuthorID,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return s.GetBook(ctx, book.ID)
}

func (s *bookService) UpdateBook(ctx context.Context, id uint, input BookInput) (*model.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrBookNotFound)
	}
	code, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	book.Title = strings.TrimSpace(input.Title)
	book.Description = strings.TrimSpace(input.Description)
	book.ISBN = code
	book.AuthorID = input.AuthorID
	book.Author = nil
	if err := s.repo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return s.GetBook(ctx, id)
}

// DeleteBook soft-deletes a book that is not out on loan.
func (s *bookService) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, apperrors.ErrBookNotFound)
	}

	active, err := s.loanRepo.CountActiveByBook(ctx, id)
	if err != nil {
		return fmt.Errorf("count active loans: %w", err)
	}
	if active > 0 {
		return apperrors.ErrBookHasActiveLoans
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrBookNotFound)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// SetBookPhoto stores a new cover and removes the one it replaces.
func (s *bookService) SetBookPhoto(ctx context.Context, id uint, filename string, r io.Reader) (*model.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrBookNotFound)
	}

	url, err := s.images.Save(KindBooks, filename, r)
	if err != nil {
		return nil, err
	}

	previous := book.Photo
	book.Photo = url
	if err := s.repo.Update(ctx, book); err != nil {
		_ = s.images.Remove(url)
		return nil, fmt.Errorf("update book photo: %w", err)
	}
	if previous != "" {
		if err := s.images.Remove(previous); err != nil {
			log.Printf("remove old book photo %s: %v", previous, err)
		}
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return book, nil
}
