package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/precisesoft/ConnectKit-sub000/internal/config"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
	"github.com/precisesoft/ConnectKit-sub000/internal/email"
	"github.com/precisesoft/ConnectKit-sub000/internal/repository"
	"github.com/precisesoft/ConnectKit-sub000/internal/token"
	"github.com/precisesoft/ConnectKit-sub000/internal/utils"
	"github.com/precisesoft/ConnectKit-sub000/pkg/observability"
	"go.uber.org/zap"
)

// authService implements AuthService
type authService struct {
	userRepo repository.UserRepository
	sessions SessionCache
	tokens   *token.Manager
	sender   email.Sender
	metrics  *observability.Metrics
	logger   *zap.Logger
	security config.SecurityConfig
	now      func() time.Time
}

// NewAuthService creates a new auth orchestration service
func NewAuthService(
	userRepo repository.UserRepository,
	sessions SessionCache,
	tokens *token.Manager,
	sender email.Sender,
	metrics *observability.Metrics,
	logger *zap.Logger,
	security config.SecurityConfig,
) AuthService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
		tokens:   tokens,
		sender:   sender,
		metrics:  metrics,
		logger:   logger,
		security: security,
		now:      time.Now,
	}
}

// Register creates a new unverified account and stashes a single-use
// verification token in the session cache.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if !utils.ValidatePassword(req.Password) {
		return nil, domain.NewValidation("password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}
	if !utils.ValidateUsername(req.Username) {
		return nil, domain.NewValidation("username must be 3-32 characters of letters, digits, '_', '.' or '-'")
	}

	passwordHash, err := utils.HashPassword(req.Password, s.security.BCryptCost)
	if err != nil {
		return nil, domain.NewInternal(err)
	}

	verificationToken, err := generateOpaqueToken()
	if err != nil {
		return nil, domain.NewInternal(err)
	}

	user := &domain.User{
		Email:             utils.SanitizeIdentifier(req.Email),
		Username:          utils.SanitizeIdentifier(req.Username),
		PasswordHash:      passwordHash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Role:              domain.RoleUser,
		IsActive:          true,
		IsVerified:        false,
		VerificationToken: &verificationToken,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, domain.NewConflict("email %s is already registered", user.Email)
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, domain.NewConflict("username %s is already taken", user.Username)
		}
		return nil, domain.NewInternal(err)
	}

	if err := s.sessions.StoreVerificationToken(ctx, verificationToken, user.ID, s.security.VerificationTokenTTL.Duration); err != nil {
		s.logger.Warn("failed to cache verification token", zap.String("user_id", user.ID), zap.Error(err))
	}

	if err := s.sender.SendVerification(ctx, user.Email, verificationToken); err != nil {
		s.logger.Warn("failed to send verification mail", zap.String("user_id", user.ID), zap.Error(err))
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Login authenticates a user. Unknown accounts and wrong passwords are
// indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeIdentifier(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordLogin(ctx, "invalid_credentials")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.NewInternal(err)
	}

	now := s.now()
	if user.IsLocked(now) {
		s.metrics.RecordLogin(ctx, "locked")
		return nil, domain.NewAccountLocked(*user.LockedUntil)
	}

	if !user.IsActive {
		s.metrics.RecordLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		attempts, lockedUntil, err := s.userRepo.RecordFailedLogin(ctx, user.ID,
			s.security.MaxFailedLogins, s.security.LockoutDuration.Duration)
		if err != nil {
			s.logger.Error("failed to record failed login", zap.String("user_id", user.ID), zap.Error(err))
		} else if lockedUntil != nil {
			s.logger.Warn("account locked after repeated failures",
				zap.String("user_id", user.ID),
				zap.Int("attempts", attempts),
				zap.Time("locked_until", *lockedUntil),
			)
		}
		s.metrics.RecordLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if s.security.RequireVerifiedEmail && !user.IsVerified {
		s.metrics.RecordLogin(ctx, "unverified")
		return nil, domain.ErrEmailNotVerified
	}

	if err := s.userRepo.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Error("failed to record login", zap.String("user_id", user.ID), zap.Error(err))
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(ctx, "success")

	return &dto.AuthResponse{
		User:         dto.NewUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Refresh rotates the token pair. The presented token must match the
// single active cached value for the user; the old jti is blacklisted for
// its remaining life. Concurrent refreshes are not serialized: the cache
// overwrite is last-write-wins and the loser fails the comparison on its
// next use.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.sessions.IsBlacklisted(ctx, claims.JTI)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if blacklisted {
		return nil, domain.ErrInvalidToken
	}

	cached, err := s.sessions.GetRefreshToken(ctx, claims.UserID)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if cached == "" || cached != hashToken(refreshToken) {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, domain.NewInternal(err)
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidToken
	}

	if err := s.sessions.BlacklistToken(ctx, claims.JTI, claims.RemainingLife(s.now()), "rotated"); err != nil {
		s.logger.Warn("failed to blacklist rotated refresh token", zap.String("user_id", user.ID), zap.Error(err))
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes the presented access token and, when provided, the
// refresh token, then drops the cached session.
func (s *authService) Logout(ctx context.Context, claims *domain.AccessClaims, refreshToken string) error {
	now := s.now()

	if err := s.sessions.BlacklistToken(ctx, claims.JTI, claims.RemainingLife(now), "logout"); err != nil {
		s.logger.Warn("failed to blacklist access token", zap.String("user_id", claims.UserID), zap.Error(err))
	}

	if refreshToken != "" {
		refreshClaims, err := s.tokens.VerifyRefreshToken(refreshToken)
		if err == nil && refreshClaims.UserID == claims.UserID {
			if err := s.sessions.BlacklistToken(ctx, refreshClaims.JTI, refreshClaims.RemainingLife(now), "logout"); err != nil {
				s.logger.Warn("failed to blacklist refresh token", zap.String("user_id", claims.UserID), zap.Error(err))
			}
		}
	}

	if err := s.sessions.DeleteRefreshToken(ctx, claims.UserID); err != nil {
		return domain.NewInternal(err)
	}

	return nil
}

// ForgotPassword initiates a password reset. The outcome is identical for
// existing and unknown accounts to prevent enumeration.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeIdentifier(emailAddr))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to look up account for password reset", zap.Error(err))
		return nil
	}

	resetToken, err := generateOpaqueToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}

	ttl := s.security.ResetTokenTTL.Duration
	if err := s.sessions.StoreResetToken(ctx, resetToken, user.ID, ttl); err != nil {
		s.logger.Error("failed to cache reset token", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}

	if err := s.userRepo.SetResetToken(ctx, user.ID, hashToken(resetToken), s.now().Add(ttl)); err != nil {
		s.logger.Error("failed to persist reset token", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}

	if err := s.sender.SendPasswordReset(ctx, user.Email, resetToken); err != nil {
		s.logger.Warn("failed to send password reset mail", zap.String("user_id", user.ID), zap.Error(err))
	}

	return nil
}

// ResetPassword completes a reset using a single-use token. The cached
// payload and the persisted token hash must both agree.
func (s *authService) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return domain.NewValidation("password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}

	userID, err := s.sessions.ConsumeResetToken(ctx, tok)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return domain.ErrInvalidToken
		}
		return domain.NewInternal(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		return domain.NewInternal(err)
	}

	now := s.now()
	if user.ResetToken == nil || *user.ResetToken != hashToken(tok) ||
		user.ResetTokenExpiresAt == nil || user.ResetTokenExpiresAt.Before(now) {
		return domain.ErrInvalidToken
	}

	passwordHash, err := utils.HashPassword(newPassword, s.security.BCryptCost)
	if err != nil {
		return domain.NewInternal(err)
	}

	if err := s.userRepo.SetPassword(ctx, user.ID, passwordHash); err != nil {
		return domain.NewInternal(err)
	}

	if err := s.sessions.InvalidateUserSessions(ctx, user.ID); err != nil {
		s.logger.Warn("failed to invalidate sessions after reset", zap.String("user_id", user.ID), zap.Error(err))
	}

	return nil
}

// ChangePassword rotates the password of an authenticated user
func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return domain.NewValidation("password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFound("user not found")
		}
		return domain.NewInternal(err)
	}

	if !utils.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	passwordHash, err := utils.HashPassword(newPassword, s.security.BCryptCost)
	if err != nil {
		return domain.NewInternal(err)
	}

	if err := s.userRepo.SetPassword(ctx, user.ID, passwordHash); err != nil {
		return domain.NewInternal(err)
	}

	if err := s.sessions.InvalidateUserSessions(ctx, user.ID); err != nil {
		s.logger.Warn("failed to invalidate sessions after password change", zap.String("user_id", user.ID), zap.Error(err))
	}

	return nil
}

// VerifyEmail consumes a single-use verification token and marks the
// account verified
func (s *authService) VerifyEmail(ctx context.Context, tok string) error {
	userID, err := s.sessions.ConsumeVerificationToken(ctx, tok)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return domain.ErrInvalidToken
		}
		return domain.NewInternal(err)
	}

	if err := s.userRepo.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		return domain.NewInternal(err)
	}

	return nil
}

// ValidateAccessToken verifies signature and expiry and rejects
// blacklisted jtis regardless of signature validity
func (s *authService) ValidateAccessToken(ctx context.Context, tokenString string) (*domain.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.sessions.IsBlacklisted(ctx, claims.JTI)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if blacklisted {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// GetUser returns the sanitized profile of a user
func (s *authService) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFound("user not found")
		}
		return nil, domain.NewInternal(err)
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Cleanup performs one housekeeping pass: expired reset tokens are purged
// and lapsed lockouts cleared
func (s *authService) Cleanup(ctx context.Context) error {
	now := s.now()

	resets, err := s.userRepo.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("cleanup reset tokens: %w", err)
	}

	lockouts, err := s.userRepo.ClearExpiredLockouts(ctx, now)
	if err != nil {
		return fmt.Errorf("cleanup lockouts: %w", err)
	}

	if resets > 0 || lockouts > 0 {
		s.logger.Info("housekeeping pass",
			zap.Int64("expired_reset_tokens", resets),
			zap.Int64("expired_lockouts", lockouts),
		)
	}

	return nil
}
