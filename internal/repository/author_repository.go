package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pedbook/internal/model"
)

// AuthorRepository defines author persistence operations.
type AuthorRepository interface {
	Create(ctx context.Context, author *model.Author) error
	Update(ctx context.Context, author *model.Author) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Author, error)
	FindByName(ctx context.Context, name string) (*model.Author, error)
	List(ctx context.Context, params model.ListParams) ([]model.Author, int64, error)
	CountBooks(ctx context.Context, id uint) (int64, error)
}

type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository creates a new author repository.
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

// Create creates a new author.
func (r *authorRepository) Create(ctx context.Context, author *model.Author) error {
	return r.db.WithContext(ctx).Create(author).Error
}

// Update saves an author without touching its books.
func (r *authorRepository) Update(ctx context.Context, author *model.Author) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(author).Error
}

// Delete soft-deletes an author.
func (r *authorRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Author{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds an author by ID.
func (r *authorRepository) FindByID(ctx context.Context, id uint) (*model.Author, error) {
	var author model.Author
	if err := r.db.WithContext(ctx).First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// FindByName finds an author by exact name.
func (r *authorRepository) FindByName(ctx context.Context, name string) (*model.Author, error) {
	var author model.Author
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// List returns one page of authors ordered by name.
func (r *authorRepository) List(ctx context.Context, params model.ListParams) ([]model.Author, int64, error) {
	var (
		authors []model.Author
		total   int64
	)
	q := r.db.WithContext(ctx).Model(&model.Author{}).Scopes(containsFold("name", params.Search)).
		Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Scopes(paginate(params)).Order("name ASC, id ASC").Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

// CountBooks counts the author's books that are not deleted.
func (r *authorRepository) CountBooks(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Book{}).Where("author_id = ?", id).Count(&count).Error
	return count, err
}
