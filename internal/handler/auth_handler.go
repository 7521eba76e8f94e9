package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pedbook/internal/auth"
	"pedbook/internal/middleware"
	"pedbook/internal/model"
	"pedbook/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	jwtService  *auth.JWTService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, userService service.UserService, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, jwtService: jwtService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *model.User `json:"user,omitempty"`
}

// Register godoc
// @Summary Register a new reader
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        model.RoleReader,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	accessToken, refreshToken, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken: accessToken,
	})
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the refresh token and, when sent as a bearer token, the access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	var access *auth.Claims
	if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		if claims, err := h.jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer ")); err == nil && claims.IsAccess() {
			access = claims
		}
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken, access); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.userService.GetUser(c.Request().Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
