package dto

import (
	"time"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
)

// UserResponse represents a sanitized user in responses. The password hash
// and the security bookkeeping columns never leave the service.
type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Role        string  `json:"role"`
	IsActive    bool    `json:"isActive"`
	IsVerified  bool    `json:"isVerified"`
	LastLoginAt *string `json:"lastLoginAt"`
	CreatedAt   string  `json:"createdAt"`
}

// NewUserResponse sanitizes a domain user for output
func NewUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       string(user.Role),
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		lastLogin := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &lastLogin
	}
	return resp
}

// RegisterResponse represents a successful registration
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// AuthResponse represents a successful authentication
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int          `json:"expiresIn"`
}

// TokenResponse represents a rotated token pair
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

// MessageResponse represents a generic success message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	LockedUntil string `json:"lockedUntil,omitempty"`
	RetryAfter  int    `json:"retryAfter,omitempty"`
}

// ContactListResponse represents a page of contacts
type ContactListResponse struct {
	Contacts []*domain.Contact `json:"contacts"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"perPage"`
}

// UserListResponse represents a page of users
type UserListResponse struct {
	Users   []UserResponse `json:"users"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}
