package repository

import (
	"context"
	"time"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
)

// UserRepository defines methods for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, page, perPage int) ([]*domain.User, int, error)

	// RecordLogin stores the login timestamp and clears the failure
	// counter and lockout.
	RecordLogin(ctx context.Context, userID string, at time.Time) error

	// RecordFailedLogin increments the failure counter inside a
	// transaction and sets the lockout timestamp once the counter reaches
	// maxAttempts. It returns the new counter value and the lockout time,
	// if one was set.
	RecordFailedLogin(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (int, *time.Time, error)

	ClearLockout(ctx context.Context, userID string) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
	MarkVerified(ctx context.Context, userID string) error
	SoftDelete(ctx context.Context, userID string) error

	// Housekeeping, driven by the periodic cleanup loop
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
	ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error)
}

// ContactRepository defines methods for contact persistence.
// All lookups are scoped to the owning user.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, userID, id string) (*domain.Contact, error)
	List(ctx context.Context, userID string, filter domain.ContactFilter) ([]*domain.Contact, int, error)
	ListAll(ctx context.Context, userID string) ([]*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
	SoftDelete(ctx context.Context, userID, id string) error
}
