package service

import (
	"context"
	"errors"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
	"github.com/precisesoft/ConnectKit-sub000/internal/repository"
	"go.uber.org/zap"
)

// userService implements the administrative UserService
type userService struct {
	repo     repository.UserRepository
	sessions SessionCache
	logger   *zap.Logger
}

// NewUserService creates a new user administration service
func NewUserService(repo repository.UserRepository, sessions SessionCache, logger *zap.Logger) UserService {
	return &userService{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
	}
}

// List returns a page of users
func (s *userService) List(ctx context.Context, page, perPage int) (*dto.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	users, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, domain.NewInternal(err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}

	return &dto.UserListResponse{
		Users:   responses,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// Get returns a single sanitized user
func (s *userService) Get(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFound("user not found")
		}
		return nil, domain.NewInternal(err)
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Unlock clears the failure counter and lockout for an account
func (s *userService) Unlock(ctx context.Context, id string) error {
	if err := s.repo.ClearLockout(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFound("user not found")
		}
		return domain.NewInternal(err)
	}

	s.logger.Info("account unlocked by administrator", zap.String("user_id", id))

	return nil
}

// Delete soft-deletes an account and drops its cached sessions
func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFound("user not found")
		}
		return domain.NewInternal(err)
	}

	if err := s.sessions.InvalidateUserSessions(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate sessions for deleted user", zap.String("user_id", id), zap.Error(err))
	}

	return nil
}
