package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pedbook/internal/middleware"
	"pedbook/internal/model"
	"pedbook/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc  service.UserService
	auth service.AuthService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, auth service.AuthService) *UserHandler {
	return &UserHandler{svc: svc, auth: auth}
}

// CreateUserRequest lets a librarian open an account with any role.
type CreateUserRequest struct {
	RegisterRequest
	Role string `json:"role" validate:"omitempty,oneof=reader librarian"`
}

// ProfileRequest represents a profile update. Omitted fields are unchanged;
// an empty email clears it.
type ProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

// FavoriteBookRequest sets or, with a null book_id, clears the favorite book.
type FavoriteBookRequest struct {
	BookID *uint `json:"book_id"`
}

// selfOrLibrarian reads the :id parameter and checks the caller may act on it.
func selfOrLibrarian(c echo.Context) (uint, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return 0, err
	}
	if !middleware.CurrentActor(c).CanAccess(id) {
		return 0, forbidden()
	}
	return id, nil
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	user, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        model.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := selfOrLibrarian(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param search query string false "Username or display name contains"
// @Success 200 {object} model.Page[model.User]
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	params, err := listParams(c)
	if err != nil {
		return err
	}
	users, err := h.svc.ListUsers(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateProfile godoc
// @Summary Update display name or email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body ProfileRequest true "Profile"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := selfOrLibrarian(c)
	if err != nil {
		return err
	}
	var req ProfileRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateProfile(c.Request().Context(), id, service.ProfileInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// SetFavoriteBook godoc
// @Summary Set or clear the favorite book
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body FavoriteBookRequest true "Book ID or null"
// @Success 200 {object} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/favorite-book [put]
func (h *UserHandler) SetFavoriteBook(c echo.Context) error {
	id, err := selfOrLibrarian(c)
	if err != nil {
		return err
	}
	var req FavoriteBookRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	user, err := h.svc.SetFavoriteBook(c.Request().Context(), id, req.BookID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UploadProfileImage godoc
// @Summary Upload profile image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param image formData file true "jpeg, png, gif or webp image"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Router /users/{id}/image [post]
func (h *UserHandler) UploadProfileImage(c echo.Context) error {
	id, err := selfOrLibrarian(c)
	if err != nil {
		return err
	}
	name, file, err := formImage(c, "image")
	if err != nil {
		return err
	}
	defer file.Close()

	user, err := h.svc.SetProfileImage(c.Request().Context(), id, name, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Description Deletes a user holding no books.
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
