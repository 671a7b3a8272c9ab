package service

import (
	"context"
	"io"
	"time"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
)

// AuthService defines the authentication orchestration operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, claims *domain.AccessClaims, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	ValidateAccessToken(ctx context.Context, tokenString string) (*domain.AccessClaims, error)
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	Cleanup(ctx context.Context) error
}

// ContactService defines the contact operations, all scoped to an owner
type ContactService interface {
	Create(ctx context.Context, userID string, req *dto.ContactRequest) (*domain.Contact, error)
	Get(ctx context.Context, userID, id string) (*domain.Contact, error)
	List(ctx context.Context, userID string, filter domain.ContactFilter) (*dto.ContactListResponse, error)
	Update(ctx context.Context, userID, id string, req *dto.ContactRequest) (*domain.Contact, error)
	Delete(ctx context.Context, userID, id string) error
	ExportCSV(ctx context.Context, userID string, w io.Writer) error
}

// UserService defines the administrative user operations
type UserService interface {
	List(ctx context.Context, page, perPage int) (*dto.UserListResponse, error)
	Get(ctx context.Context, id string) (*dto.UserResponse, error)
	Unlock(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SessionCache is the Redis-resident session state consulted by the auth
// orchestration. Implemented by cache.SessionStore.
type SessionCache interface {
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	DeleteRefreshToken(ctx context.Context, userID string) error
	InvalidateUserSessions(ctx context.Context, userID string) error
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration, reason string) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	StoreVerificationToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeVerificationToken(ctx context.Context, token string) (string, error)
	StoreResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

// ContactCache is the cache-aside layer over contact reads.
// Implemented by cache.ContactCache.
type ContactCache interface {
	Get(ctx context.Context, id string) *domain.Contact
	Set(ctx context.Context, contact *domain.Contact)
	Invalidate(ctx context.Context, id string)
}
