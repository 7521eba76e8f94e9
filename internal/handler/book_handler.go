package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pedbook/internal/service"
)

// BookHandler handles book endpoints.
type BookHandler struct {
	books   service.BookService
	reviews service.ReviewService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(books service.BookService, reviews service.ReviewService) *BookHandler {
	return &BookHandler{books: books, reviews: reviews}
}

// BookRequest represents a book create or update request.
type BookRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
	ISBN        string `json:"isbn" validate:"max=20"`
	AuthorID    uint   `json:"author_id" validate:"required"`
}

func (r BookRequest) input() service.BookInput {
	return service.BookInput{
		Title:       r.Title,
		Description: r.Description,
		ISBN:        r.ISBN,
		AuthorID:    r.AuthorID,
	}
}

// ListBooks godoc
// @Summary List books
// @Tags books
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param search query string false "Title contains"
// @Param author_id query int false "Filter by author"
// @Success 200 {object} model.Page[model.Book]
// @Failure 400 {object} errors.ErrorResponse
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	params, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.books.ListBooks(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetBook godoc
// @Summary Get book by id
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	book, err := h.books.GetBook(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

// ListBookReviews godoc
// @Summary List the reviews of a book with its rating summary
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.BookReviews
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id}/reviews [get]
func (h *BookHandler) ListBookReviews(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	params, err := listParams(c)
	if err != nil {
		return err
	}
	result, err := h.reviews.ListBookReviews(c.Request().Context(), id, params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// CreateBook godoc
// @Summary Create book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BookRequest true "Book"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	var req BookRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	book, err := h.books.CreateBook(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary Update book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body BookRequest true "Book"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req BookRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	book, err := h.books.UpdateBook(c.Request().Context(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Delete book
// @Description Soft-deletes a book that is not out on loan.
// @Tags books
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.books.DeleteBook(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto godoc
// @Summary Upload book cover
// @Tags books
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param photo formData file true "jpeg, png, gif or webp image"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Router /books/{id}/photo [post]
func (h *BookHandler) UploadPhoto(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	name, file, err := formImage(c, "photo")
	if err != nil {
		return err
	}
	defer file.Close()

	book, err := h.books.SetBookPhoto(c.Request().Context(), id, name, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}
