package domain

import "time"

// AccessClaims represents verified access token claims
type AccessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	JTI    string `json:"jti"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// RefreshClaims represents verified refresh token claims
type RefreshClaims struct {
	UserID string `json:"user_id"`
	JTI    string `json:"jti"`
	Exp    int64  `json:"exp"`
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// RemainingLife returns the duration until the claims expire, zero if already expired
func (c AccessClaims) RemainingLife(now time.Time) time.Duration {
	return remaining(c.Exp, now)
}

// RemainingLife returns the duration until the claims expire, zero if already expired
func (c RefreshClaims) RemainingLife(now time.Time) time.Duration {
	return remaining(c.Exp, now)
}

func remaining(exp int64, now time.Time) time.Duration {
	d := time.Unix(exp, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
