package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pedbook/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
)

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uint, username string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID uint, username string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type refreshTokenData struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, username string, ttl time.Duration) error {
	payload, err := json.Marshal(refreshTokenData{UserID: userID, Username: username})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves refresh token data from Redis.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (userID uint, username string, err error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil || data == nil {
		return 0, "", fmt.Errorf("refresh token not found")
	}

	var tokenData refreshTokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return 0, "", fmt.Errorf("unmarshal token data: %w", err)
	}
	if tokenData.UserID == 0 {
		return 0, "", fmt.Errorf("invalid user_id in token data")
	}

	return tokenData.UserID, tokenData.Username, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, accessTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil // Not blacklisted if error (fail safe)
	}
	return data != nil, nil
}
