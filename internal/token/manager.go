package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
)

// Manager signs and verifies access and refresh tokens.
// It holds no state beyond the signing secret and expiry configuration;
// blacklist checks are the caller's responsibility.
type Manager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewManager creates a new token manager
func NewManager(secret string, accessExpiry, refreshExpiry time.Duration) *Manager {
	return &Manager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// GenerateAccessToken issues a short-lived signed token carrying the
// subject id, role and a unique jti.
func (m *Manager) GenerateAccessToken(user *domain.User) (string, *domain.AccessClaims, error) {
	now := time.Now()
	claims := &domain.AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    uuid.New().String(),
		Exp:    now.Add(m.accessExpiry).Unix(),
		Iat:    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    string(claims.Role),
		"jti":     claims.JTI,
		"exp":     claims.Exp,
		"iat":     claims.Iat,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, claims, nil
}

// GenerateRefreshToken issues a long-lived signed token carrying a jti
func (m *Manager) GenerateRefreshToken(userID string) (string, *domain.RefreshClaims, error) {
	now := time.Now()
	claims := &domain.RefreshClaims{
		UserID: userID,
		JTI:    uuid.New().String(),
		Exp:    now.Add(m.refreshExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": claims.UserID,
		"jti":     claims.JTI,
		"exp":     claims.Exp,
		"iat":     now.Unix(),
		"type":    "refresh",
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return signed, claims, nil
}

// VerifyAccessToken validates signature and expiry and returns the claims
func (m *Manager) VerifyAccessToken(tokenString string) (*domain.AccessClaims, error) {
	mapClaims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}

	userID, ok1 := mapClaims["user_id"].(string)
	email, ok2 := mapClaims["email"].(string)
	role, ok3 := mapClaims["role"].(string)
	jti, ok4 := mapClaims["jti"].(string)
	exp, ok5 := mapClaims["exp"].(float64)
	iat, ok6 := mapClaims["iat"].(float64)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return nil, domain.ErrInvalidToken
	}

	return &domain.AccessClaims{
		UserID: userID,
		Email:  email,
		Role:   domain.Role(role),
		JTI:    jti,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}, nil
}

// VerifyRefreshToken validates signature, expiry and token type
func (m *Manager) VerifyRefreshToken(tokenString string) (*domain.RefreshClaims, error) {
	mapClaims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if mapClaims["type"] != "refresh" {
		return nil, domain.ErrInvalidToken
	}

	userID, ok1 := mapClaims["user_id"].(string)
	jti, ok2 := mapClaims["jti"].(string)
	exp, ok3 := mapClaims["exp"].(float64)
	if !ok1 || !ok2 || !ok3 {
		return nil, domain.ErrInvalidToken
	}

	return &domain.RefreshClaims{
		UserID: userID,
		JTI:    jti,
		Exp:    int64(exp),
	}, nil
}

func (m *Manager) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// AccessTokenExpiry returns the configured access token lifetime
func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessExpiry
}

// RefreshTokenExpiry returns the configured refresh token lifetime
func (m *Manager) RefreshTokenExpiry() time.Duration {
	return m.refreshExpiry
}
