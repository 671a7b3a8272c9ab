package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
)

// issueTokenPair mints an access and refresh token for the user and
// records the refresh token hash as the single active session value.
func (s *authService) issueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, _, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, domain.NewInternal(fmt.Errorf("failed to generate access token: %w", err))
	}

	refreshToken, _, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, domain.NewInternal(fmt.Errorf("failed to generate refresh token: %w", err))
	}

	err = s.sessions.StoreRefreshToken(ctx, user.ID, hashToken(refreshToken), s.tokens.RefreshTokenExpiry())
	if err != nil {
		return nil, domain.NewInternal(fmt.Errorf("failed to store refresh token: %w", err))
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenExpiry().Seconds()),
	}, nil
}

// generateOpaqueToken returns a URL-safe random token for verification
// and reset flows
func generateOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashToken hashes a token with SHA-256 for at-rest comparison
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
