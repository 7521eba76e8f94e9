package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pedbook/internal/model"
)

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	FindByUserAndBook(ctx context.Context, userID, bookID uint) (*model.Review, error)
	List(ctx context.Context, params model.ListParams) ([]model.Review, int64, error)
	Summary(ctx context.Context, bookID uint) (*model.RatingSummary, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).Preload("User", publicUser).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByUserAndBook(ctx context.Context, userID, bookID uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// List returns one page of reviews, newest first.
func (r *reviewRepository) List(ctx context.Context, params model.ListParams) ([]model.Review, int64, error) {
	var (
		reviews []model.Review
		total   int64
	)
	q := r.db.WithContext(ctx).Model(&model.Review{}).Scopes(containsFold("comment", params.Search))
	if params.BookID != 0 {
		q = q.Where("book_id = ?", params.BookID)
	}
	if params.UserID != 0 {
		q = q.Where("user_id = ?", params.UserID)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Scopes(paginate(params)).Preload("User", publicUser).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Summary returns the average rating and review count of a book.
func (r *reviewRepository) Summary(ctx context.Context, bookID uint) (*model.RatingSummary, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	summary := &model.RatingSummary{Count: row.Count}
	if row.Average != nil {
		summary.Average = *row.Average
	}
	return summary, nil
}
