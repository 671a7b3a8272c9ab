package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies an operational error kind
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation_error"
	CodeInvalidCredentials ErrorCode = "invalid_credentials"
	CodeInvalidToken       ErrorCode = "invalid_token"
	CodeExpiredToken       ErrorCode = "expired_token"
	CodeEmailNotVerified   ErrorCode = "email_not_verified"
	CodeAccountLocked      ErrorCode = "account_locked"
	CodeForbidden          ErrorCode = "forbidden"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeRateLimited        ErrorCode = "rate_limit_exceeded"
	CodeInternal           ErrorCode = "internal_error"
)

// Error is an operational error carrying an HTTP status.
// Two Errors match with errors.Is when their codes are equal.
type Error struct {
	Code        ErrorCode
	Status      int
	Message     string
	Err         error
	LockedUntil *time.Time
	RetryAfter  time.Duration
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel instances for errors.Is matching
var (
	ErrValidation         = &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: "validation failed"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken, Status: http.StatusUnauthorized, Message: "invalid token"}
	ErrExpiredToken       = &Error{Code: CodeExpiredToken, Status: http.StatusUnauthorized, Message: "token has expired"}
	ErrEmailNotVerified   = &Error{Code: CodeEmailNotVerified, Status: http.StatusUnauthorized, Message: "email address is not verified"}
	ErrAccountLocked      = &Error{Code: CodeAccountLocked, Status: http.StatusLocked, Message: "account is temporarily locked"}
	ErrForbidden          = &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: "forbidden"}
	ErrNotFound           = &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: "resource not found"}
	ErrConflict           = &Error{Code: CodeConflict, Status: http.StatusConflict, Message: "resource already exists"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Status: http.StatusTooManyRequests, Message: "rate limit exceeded"}
	ErrInternal           = &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal server error"}
)

// NewValidation returns a validation error with a caller-facing message
func NewValidation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NewConflict returns a conflict error with a caller-facing message
func NewConflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound returns a not-found error with a caller-facing message
func NewNotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewAccountLocked returns a lockout error carrying the unlock time
func NewAccountLocked(until time.Time) *Error {
	return &Error{
		Code:        CodeAccountLocked,
		Status:      http.StatusLocked,
		Message:     fmt.Sprintf("account is locked until %s", until.UTC().Format(time.RFC3339)),
		LockedUntil: &until,
	}
}

// NewRateLimited returns a throttling error carrying a retry-after hint
func NewRateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Status:     http.StatusTooManyRequests,
		Message:    fmt.Sprintf("rate limit exceeded, try again in %s", retryAfter.Round(time.Second)),
		RetryAfter: retryAfter,
	}
}

// NewInternal wraps an unexpected error. The cause is logged, never serialized.
func NewInternal(err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// AsError extracts an *Error from err, mapping unknown errors to internal
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewInternal(err)
}
