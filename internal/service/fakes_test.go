package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository for service tests
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.DeletedAt != nil {
			continue
		}
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) get(id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.users {
		if user.Email == email && user.DeletedAt == nil {
			return r.get(id)
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.users {
		if user.Username == username && user.DeletedAt == nil {
			return r.get(id)
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	clone.UpdatedAt = time.Now()
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, page, perPage int) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*domain.User
	for _, user := range r.users {
		if user.DeletedAt == nil {
			clone := *user
			users = append(users, &clone)
		}
	}
	return users, len(users), nil
}

func (r *fakeUserRepo) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastLoginAt = &at
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return nil
}

func (r *fakeUserRepo) RecordFailedLogin(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return 0, nil, repository.ErrNotFound
	}

	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= maxAttempts {
		until := time.Now().Add(lockFor)
		user.LockedUntil = &until
		return user.FailedLoginAttempts, &until, nil
	}
	return user.FailedLoginAttempts, nil, nil
}

func (r *fakeUserRepo) ClearLockout(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return nil
}

func (r *fakeUserRepo) SetPassword(ctx context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetToken = &token
	user.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) ClearResetToken(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) MarkVerified(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsVerified = true
	user.VerificationToken = nil
	return nil
}

func (r *fakeUserRepo) SoftDelete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok || user.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	user.DeletedAt = &now
	return nil
}

func (r *fakeUserRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, user := range r.users {
		if user.ResetTokenExpiresAt != nil && user.ResetTokenExpiresAt.Before(now) {
			user.ResetToken = nil
			user.ResetTokenExpiresAt = nil
			cleared++
		}
	}
	return cleared, nil
}

func (r *fakeUserRepo) ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, user := range r.users {
		if user.LockedUntil != nil && user.LockedUntil.Before(now) {
			user.LockedUntil = nil
			user.FailedLoginAttempts = 0
			cleared++
		}
	}
	return cleared, nil
}

// fakeSessionCache is an in-memory SessionCache
type fakeSessionCache struct {
	mu            sync.Mutex
	refreshTokens map[string]string
	blacklist     map[string]string
	verifyTokens  map[string]string
	resetTokens   map[string]string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		refreshTokens: make(map[string]string),
		blacklist:     make(map[string]string),
		verifyTokens:  make(map[string]string),
		resetTokens:   make(map[string]string),
	}
}

func (c *fakeSessionCache) StoreRefreshToken(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshTokens[userID] = tokenHash
	return nil
}

func (c *fakeSessionCache) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshTokens[userID], nil
}

func (c *fakeSessionCache) DeleteRefreshToken(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.refreshTokens, userID)
	return nil
}

func (c *fakeSessionCache) InvalidateUserSessions(ctx context.Context, userID string) error {
	return c.DeleteRefreshToken(ctx, userID)
}

func (c *fakeSessionCache) BlacklistToken(ctx context.Context, jti string, ttl time.Duration, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl > 0 {
		c.blacklist[jti] = reason
	}
	return nil
}

func (c *fakeSessionCache) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.blacklist[jti]
	return ok, nil
}

func (c *fakeSessionCache) StoreVerificationToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyTokens[token] = userID
	return nil
}

func (c *fakeSessionCache) ConsumeVerificationToken(ctx context.Context, token string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	userID, ok := c.verifyTokens[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	delete(c.verifyTokens, token)
	return userID, nil
}

func (c *fakeSessionCache) StoreResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetTokens[token] = userID
	return nil
}

func (c *fakeSessionCache) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	userID, ok := c.resetTokens[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	delete(c.resetTokens, token)
	return userID, nil
}

// fakeSender captures outgoing mail tokens
type fakeSender struct {
	mu                    sync.Mutex
	lastVerificationToken string
	lastResetToken        string
	verificationCount     int
	resetCount            int
}

func (s *fakeSender) SendVerification(ctx context.Context, to, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVerificationToken = token
	s.verificationCount++
	return nil
}

func (s *fakeSender) SendPasswordReset(ctx context.Context, to, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResetToken = token
	s.resetCount++
	return nil
}

// fakeContactRepo is an in-memory ContactRepository
type fakeContactRepo struct {
	mu       sync.Mutex
	contacts map[string]*domain.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[string]*domain.Contact)}
}

func (r *fakeContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if contact.Email != nil {
		for _, existing := range r.contacts {
			if existing.DeletedAt != nil || existing.UserID != contact.UserID {
				continue
			}
			if existing.Email != nil && *existing.Email == *contact.Email {
				return repository.ErrDuplicateContactEmail
			}
		}
	}

	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt

	clone := *contact
	r.contacts[contact.ID] = &clone
	return nil
}

func (r *fakeContactRepo) GetByID(ctx context.Context, userID, id string) (*domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact, ok := r.contacts[id]
	if !ok || contact.DeletedAt != nil || contact.UserID != userID {
		return nil, repository.ErrNotFound
	}
	clone := *contact
	return &clone, nil
}

func (r *fakeContactRepo) List(ctx context.Context, userID string, filter domain.ContactFilter) ([]*domain.Contact, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Contact
	for _, contact := range r.contacts {
		if contact.DeletedAt != nil || contact.UserID != userID {
			continue
		}
		if filter.Status != "" && contact.Status != filter.Status {
			continue
		}
		if filter.IsFavorite != nil && contact.IsFavorite != *filter.IsFavorite {
			continue
		}
		clone := *contact
		matched = append(matched, &clone)
	}

	total := len(matched)
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeContactRepo) ListAll(ctx context.Context, userID string) ([]*domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Contact
	for _, contact := range r.contacts {
		if contact.DeletedAt == nil && contact.UserID == userID {
			clone := *contact
			matched = append(matched, &clone)
		}
	}
	return matched, nil
}

func (r *fakeContactRepo) Update(ctx context.Context, contact *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[contact.ID]
	if !ok || existing.DeletedAt != nil || existing.UserID != contact.UserID {
		return repository.ErrNotFound
	}
	clone := *contact
	clone.CreatedAt = existing.CreatedAt
	clone.UpdatedAt = time.Now()
	r.contacts[contact.ID] = &clone
	return nil
}

func (r *fakeContactRepo) SoftDelete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact, ok := r.contacts[id]
	if !ok || contact.DeletedAt != nil || contact.UserID != userID {
		return repository.ErrNotFound
	}
	now := time.Now()
	contact.DeletedAt = &now
	return nil
}

// fakeContactCache is an in-memory ContactCache counting hits
type fakeContactCache struct {
	mu       sync.Mutex
	contacts map[string]*domain.Contact
	hits     int
}

func newFakeContactCache() *fakeContactCache {
	return &fakeContactCache{contacts: make(map[string]*domain.Contact)}
}

func (c *fakeContactCache) Get(ctx context.Context, id string) *domain.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	contact, ok := c.contacts[id]
	if !ok {
		return nil
	}
	c.hits++
	clone := *contact
	return &clone
}

func (c *fakeContactCache) Set(ctx context.Context, contact *domain.Contact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *contact
	c.contacts[contact.ID] = &clone
}

func (c *fakeContactCache) Invalidate(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contacts, id)
}
