package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,32}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateUsername validates a username: 3-32 chars, letters, digits, "_", "." or "-"
func ValidateUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// ValidatePassword validates a password.
// Minimum 8 characters, at least one uppercase letter, one lowercase letter, one number.
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	hasUpper := false
	hasLower := false
	hasNumber := false

	for _, char := range password {
		switch {
		case 'A' <= char && char <= 'Z':
			hasUpper = true
		case 'a' <= char && char <= 'z':
			hasLower = true
		case '0' <= char && char <= '9':
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

// SanitizeIdentifier lowercases and trims an email or username for
// case-insensitive matching
func SanitizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
