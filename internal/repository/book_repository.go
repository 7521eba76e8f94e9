package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pedbook/internal/model"
)

// BookRepository defines book persistence operations.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	FindByTitleAndAuthor(ctx context.Context, title string, authorID uint) (*model.Book, error)
	List(ctx context.Context, params model.ListParams) ([]model.Book, int64, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(book).Error
}

// Update saves a book without touching its author row.
func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(book).Error
}

// Delete soft-deletes a book.
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Book{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a book by ID with its author.
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Preload("Author").First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByTitleAndAuthor finds a book by exact title for one author.
func (r *bookRepository) FindByTitleAndAuthor(ctx context.Context, title string, authorID uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("title = ? AND author_id = ?", title, authorID).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns one page of books ordered by title.
func (r *bookRepository) List(ctx context.Context, params model.ListParams) ([]model.Book, int64, error) {
	var (
		books []model.Book
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Book{}).Scopes(containsFold("title", params.Search))
	if params.AuthorID != 0 {
		q = q.Where("author_id = ?", params.AuthorID)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Scopes(paginate(params)).Preload("Author").Order("title ASC, id ASC").Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}
