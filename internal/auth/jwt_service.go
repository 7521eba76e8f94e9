package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pedbook/internal/model"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 15 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT claims.
type Claims struct {
	UserID   uint       `json:"user_id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	Type     string     `json:"typ"`
	jwt.RegisteredClaims
}

// IsAccess reports whether the token may authenticate API requests.
func (c *Claims) IsAccess() bool {
	return c != nil && c.Type == TokenTypeAccess
}

// IsLibrarian reports whether the token belongs to a librarian.
func (c *Claims) IsLibrarian() bool {
	return c != nil && c.Role == model.RoleLibrarian
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Secret returns the signing key, for the echo-jwt middleware.
func (s *JWTService) Secret() []byte {
	return s.secret
}

// GenerateAccessToken generates a new access token for the user.
// Every access token carries an ID so it can be revoked on logout.
func (s *JWTService) GenerateAccessToken(user *model.User) (string, error) {
	_, token, err := s.sign(user, TokenTypeAccess, AccessTokenExpiry)
	return token, err
}

// GenerateRefreshToken generates a new refresh token for the user.
// The refresh token ID is returned separately for storage in Redis.
func (s *JWTService) GenerateRefreshToken(user *model.User) (tokenID string, token string, err error) {
	return s.sign(user, TokenTypeRefresh, RefreshTokenExpiry)
}

func (s *JWTService) sign(user *model.User, typ string, ttl time.Duration) (string, string, error) {
	now := s.now()
	tokenID := generateTokenID()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tokenID, token, err
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ExtractTokenID extracts the token ID (JTI) from a token.
func (s *JWTService) ExtractTokenID(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("token ID not found")
	}
	return claims.ID, nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	return uuid.New().String()
}
