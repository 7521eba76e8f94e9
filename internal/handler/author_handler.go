package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pedbook/internal/service"
)

// AuthorHandler handles author endpoints.
type AuthorHandler struct {
	authors service.AuthorService
	books   service.BookService
}

// NewAuthorHandler creates a new author handler.
func NewAuthorHandler(authors service.AuthorService, books service.BookService) *AuthorHandler {
	return &AuthorHandler{authors: authors, books: books}
}

// AuthorRequest represents an author create or update request.
type AuthorRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Biography string `json:"biography" validate:"max=10000"`
}

// ListAuthors godoc
// @Summary List authors
// @Tags authors
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param search query string false "Name contains"
// @Success 200 {object} model.Page[model.Author]
// @Failure 400 {object} errors.ErrorResponse
// @Router /authors [get]
func (h *AuthorHandler) ListAuthors(c echo.Context) error {
	params, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.authors.ListAuthors(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetAuthor godoc
// @Summary Get author by id
// @Tags authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} model.Author
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /authors/{id} [get]
func (h *AuthorHandler) GetAuthor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	author, err := h.authors.GetAuthor(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, author)
}

// ListAuthorBooks godoc
// @Summary List the books of an author
// @Tags authors
// @Produce json
// @Param id path int true "Author ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} model.Page[model.Book]
// @Failure 404 {object} errors.ErrorResponse
// @Router /authors/{id}/books [get]
func (h *AuthorHandler) ListAuthorBooks(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	params, err := listParams(c)
	if err != nil {
		return err
	}
	if _, err := h.authors.GetAuthor(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	params.AuthorID = id
	page, err := h.books.ListBooks(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// CreateAuthor godoc
// @Summary Create author
// @Tags authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AuthorRequest true "Author"
// @Success 201 {object} model.Author
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /authors [post]
func (h *AuthorHandler) CreateAuthor(c echo.Context) error {
	var req AuthorRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	author, err := h.authors.CreateAuthor(c.Request().Context(), service.AuthorInput{
		Name:      req.Name,
		Biography: req.Biography,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, author)
}

// UpdateAuthor godoc
// @Summary Update author
// @Tags authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Param request body AuthorRequest true "Author"
// @Success 200 {object} model.Author
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /authors/{id} [put]
func (h *AuthorHandler) UpdateAuthor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req AuthorRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	author, err := h.authors.UpdateAuthor(c.Request().Context(), id, service.AuthorInput{
		Name:      req.Name,
		Biography: req.Biography,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, author)
}

// DeleteAuthor godoc
// @Summary Delete author
// @Description Soft-deletes an author without books.
// @Tags authors
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /authors/{id} [delete]
func (h *AuthorHandler) DeleteAuthor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.authors.DeleteAuthor(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto godoc
// @Summary Upload author photo
// @Tags authors
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Param photo formData file true "jpeg, png, gif or webp image"
// @Success 200 {object} model.Author
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Router /authors/{id}/photo [post]
func (h *AuthorHandler) UploadPhoto(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	name, file, err := formImage(c, "photo")
	if err != nil {
		return err
	}
	defer file.Close()

	author, err := h.authors.SetAuthorPhoto(c.Request().Context(), id, name, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, author)
}
