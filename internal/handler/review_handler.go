package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pedbook/internal/middleware"
	"pedbook/internal/service"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviews service.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviews service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// CreateReviewRequest represents a new review. Rating must be 1 to 5.
type CreateReviewRequest struct {
	BookID  uint   `json:"book_id" validate:"required"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=5000"`
}

// UpdateReviewRequest represents a review edit.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=5000"`
}

// ListReviews godoc
// @Summary List reviews
// @Tags reviews
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param book_id query int false "Filter by book"
// @Param user_id query int false "Filter by reviewer"
// @Success 200 {object} model.Page[model.Review]
// @Failure 400 {object} errors.ErrorResponse
// @Router /reviews [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	params, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.reviews.ListReviews(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetReview godoc
// @Summary Get review by id
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} model.Review
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetReview(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	review, err := h.reviews.GetReview(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, review)
}

// CreateReview godoc
// @Summary Review a book
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} model.Review
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	var req CreateReviewRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	review, err := h.reviews.CreateReview(c.Request().Context(), middleware.CurrentActor(c), service.ReviewInput{
		BookID:  req.BookID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, review)
}

// UpdateReview godoc
// @Summary Edit own review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body UpdateReviewRequest true "Review"
// @Success 200 {object} model.Review
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateReviewRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	review, err := h.reviews.UpdateReview(c.Request().Context(), middleware.CurrentActor(c), id, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete review
// @Description Authors may delete their own reviews; librarians any.
// @Tags reviews
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.reviews.DeleteReview(c.Request().Context(), middleware.CurrentActor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
