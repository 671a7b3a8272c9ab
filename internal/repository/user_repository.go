package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/pkg/database"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, role,
		is_active, is_verified, failed_login_attempts, locked_until, last_login_at,
		verification_token, reset_token, reset_token_expires_at, created_at, updated_at`

// userRepository implements UserRepository over database/sql
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, first_name, last_name,
			role, is_active, is_verified, verification_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
		user.IsVerified,
		user.VerificationToken,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dup := mapUserUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a live user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.scanOne(r.db.DB.QueryRowContext(ctx, query, id), fmt.Sprintf("id %s", id))
}

// GetByEmail retrieves a live user by email, case-insensitive
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`
	return r.scanOne(r.db.DB.QueryRowContext(ctx, query, email), fmt.Sprintf("email %s", email))
}

// GetByUsername retrieves a live user by username, case-insensitive
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1) AND deleted_at IS NULL`
	return r.scanOne(r.db.DB.QueryRowContext(ctx, query, username), fmt.Sprintf("username %s", username))
}

// Update updates the mutable profile fields of a user
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, first_name = $4, last_name = $5,
			role = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
	)

	if err != nil {
		if dup := mapUserUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", user.ID))
}

// List returns a page of live users and the total count
func (r *userRepository) List(ctx context.Context, page, perPage int) ([]*domain.User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int
	if err := r.db.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.DB.QueryContext(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, total, nil
}

// RecordLogin stores the login timestamp and clears the failure state
func (r *userRepository) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	query := `
		UPDATE users
		SET last_login_at = $2, failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", userID))
}

// RecordFailedLogin increments the failure counter inside an explicit
// transaction. The lockout is set when the counter reaches maxAttempts.
func (r *userRepository) RecordFailedLogin(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (int, *time.Time, error) {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var attempts int
	err = tx.QueryRowContext(ctx,
		`SELECT failed_login_attempts FROM users WHERE id = $1 AND deleted_at IS NULL`,
		userID,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
		}
		return 0, nil, fmt.Errorf("failed to read failure counter: %w", err)
	}

	attempts++

	var lockedUntil *time.Time
	if attempts >= maxAttempts {
		until := time.Now().Add(lockFor)
		lockedUntil = &until
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW() WHERE id = $1`,
		userID, attempts, lockedUntil,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to update failure counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return attempts, lockedUntil, nil
}

// ClearLockout resets the failure counter and lockout timestamp
func (r *userRepository) ClearLockout(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", userID))
}

// SetPassword replaces the password hash and clears the failure state
// and any outstanding reset token
func (r *userRepository) SetPassword(ctx context.Context, userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, failed_login_attempts = 0, locked_until = NULL,
			reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", userID))
}

// SetResetToken persists the password reset token and its expiry
func (r *userRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", userID))
}

// ClearResetToken removes the password reset token
func (r *userRepository) ClearResetToken(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", userID))
}

// MarkVerified sets the verified flag and clears the verification token
func (r *userRepository) MarkVerified(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, verification_token = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", userID))
}

// SoftDelete marks a user as deleted without removing the row
func (r *userRepository) SoftDelete(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete user: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("user with id %s", userID))
}

// ClearExpiredResetTokens purges reset tokens whose expiry has passed
func (r *userRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE reset_token IS NOT NULL AND reset_token_expires_at < $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}

	return result.RowsAffected()
}

// ClearExpiredLockouts clears lockouts whose expiry has passed
func (r *userRepository) ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE locked_until IS NOT NULL AND locked_until < $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired lockouts: %w", err)
	}

	return result.RowsAffected()
}

func (r *userRepository) scanOne(row *sql.Row, desc string) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s not found: %w", desc, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var lockedUntil, lastLoginAt, resetExpiresAt sql.NullTime
	var verificationToken, resetToken sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.IsVerified,
		&user.FailedLoginAttempts,
		&lockedUntil,
		&lastLoginAt,
		&verificationToken,
		&resetToken,
		&resetExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if lockedUntil.Valid {
		user.LockedUntil = &lockedUntil.Time
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}
	if resetExpiresAt.Valid {
		user.ResetTokenExpiresAt = &resetExpiresAt.Time
	}
	if verificationToken.Valid {
		user.VerificationToken = &verificationToken.String
	}
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}

	return user, nil
}

func mapUserUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_unique":
			return ErrDuplicateEmail
		case "users_username_unique":
			return ErrDuplicateUsername
		}
		return ErrDuplicateEmail
	}
	return nil
}

func checkAffected(result sql.Result, desc string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s not found: %w", desc, ErrNotFound)
	}
	return nil
}
