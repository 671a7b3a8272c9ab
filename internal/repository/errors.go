package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when a user email is already taken
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateUsername is returned when a username is already taken
	ErrDuplicateUsername = errors.New("user with this username already exists")

	// ErrDuplicateContactEmail is returned when the owner already has a
	// contact with this email
	ErrDuplicateContactEmail = errors.New("contact with this email already exists")
)
