package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/pkg/database"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the ephemeral auth state in Redis: the single active
// refresh token per user, the jti blacklist and the single-use
// verification/reset token payloads.
type SessionStore struct {
	redis *database.Redis
}

// NewSessionStore creates a new session store
func NewSessionStore(redis *database.Redis) *SessionStore {
	return &SessionStore{redis: redis}
}

func refreshTokenKey(userID string) string {
	return fmt.Sprintf("refresh_token:%s", userID)
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("token_blacklist:%s", jti)
}

func verificationKey(token string) string {
	return fmt.Sprintf("verify_token:%s", token)
}

func resetKey(token string) string {
	return fmt.Sprintf("reset_token:%s", token)
}

// StoreRefreshToken records the active refresh token hash for a user,
// overwriting any previous value (single-active-token policy).
func (s *SessionStore) StoreRefreshToken(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	if err := s.redis.Client.Set(ctx, refreshTokenKey(userID), tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken returns the active refresh token hash for a user,
// or an empty string when none is cached.
func (s *SessionStore) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	val, err := s.redis.Client.Get(ctx, refreshTokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}
	return val, nil
}

// DeleteRefreshToken removes the active refresh token for a user
func (s *SessionStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	if err := s.redis.Client.Del(ctx, refreshTokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// InvalidateUserSessions drops all cached session state for a user
func (s *SessionStore) InvalidateUserSessions(ctx context.Context, userID string) error {
	return s.DeleteRefreshToken(ctx, userID)
}

// BlacklistToken records a revocation entry for a jti, valid until the
// token's natural expiry. Already-expired tokens need no entry.
func (s *SessionStore) BlacklistToken(ctx context.Context, jti string, ttl time.Duration, reason string) error {
	if ttl <= 0 {
		return nil
	}
	if reason == "" {
		reason = "revoked"
	}
	if err := s.redis.Client.Set(ctx, blacklistKey(jti), reason, ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted checks whether a jti has a revocation entry
func (s *SessionStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := s.redis.Client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// StoreVerificationToken stores a single-use email verification token payload
func (s *SessionStore) StoreVerificationToken(ctx context.Context, tok, userID string, ttl time.Duration) error {
	if err := s.redis.Client.Set(ctx, verificationKey(tok), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}
	return nil
}

// ConsumeVerificationToken atomically fetches and deletes a verification
// token, returning the owning user id. Missing or expired tokens yield
// domain.ErrInvalidToken.
func (s *SessionStore) ConsumeVerificationToken(ctx context.Context, tok string) (string, error) {
	userID, err := s.redis.Client.GetDel(ctx, verificationKey(tok)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume verification token: %w", err)
	}
	return userID, nil
}

// StoreResetToken stores a single-use password reset token payload
func (s *SessionStore) StoreResetToken(ctx context.Context, tok, userID string, ttl time.Duration) error {
	if err := s.redis.Client.Set(ctx, resetKey(tok), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken atomically fetches and deletes a reset token,
// returning the owning user id
func (s *SessionStore) ConsumeResetToken(ctx context.Context, tok string) (string, error) {
	userID, err := s.redis.Client.GetDel(ctx, resetKey(tok)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}
