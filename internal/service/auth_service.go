package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pedbook/internal/auth"
	apperrors "pedbook/internal/errors"
	"pedbook/internal/model"
	"pedbook/internal/repository"
)

const bcryptCost = 10

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
	Role        model.Role
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string, access *auth.Claims) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	notifier   Notifier
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, notifier Notifier) AuthService {
	if notifier == nil {
		notifier = NoopNotifier
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		notifier:   notifier,
	}
}

// Register creates a new user with hashed password.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	role := input.Role
	if role == "" {
		role = model.RoleReader
	}
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUsernameTaken
	}
	// If error is not "record not found", return it (could be a database error)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	var email *string
	if e := strings.ToLower(strings.TrimSpace(input.Email)); e != "" {
		if err := ensureEmailFree(ctx, s.userRepo, e, 0); err != nil {
			return nil, err
		}
		email = &e
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		DisplayName:  displayName,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.notifier.Welcome(ctx, user)
	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error) {
	user, err = s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, apperrors.ErrInvalidCredentials
		}
		return "", "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	// Store refresh token in Redis
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Username, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// RefreshToken validates a refresh token and returns a new access token
// carrying the user's current role.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.ID == "" || claims.Type != auth.TokenTypeRefresh {
		return "", apperrors.ErrInvalidRefreshToken
	}

	storedUserID, storedUsername, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedUsername != claims.Username {
		return "", apperrors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates a refresh token and, when given, the access token in use.
func (s *authService) Logout(ctx context.Context, refreshToken string, access *auth.Claims) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return apperrors.ErrInvalidRefreshToken
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, tokenID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if access != nil && access.ID != "" && access.ExpiresAt != nil {
		ttl := time.Until(access.ExpiresAt.Time)
		if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, ttl); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}
	return nil
}
