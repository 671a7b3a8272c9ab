package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,min=3,max=32"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to rotate
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke alongside
// the presented access token
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest represents a password reset initiation request
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents a password reset completion request
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

// ChangePasswordRequest represents an authenticated password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// VerifyEmailRequest carries the single-use email verification token
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// ContactRequest represents a contact create/update payload
type ContactRequest struct {
	FirstName   string            `json:"firstName" binding:"required,max=100"`
	LastName    string            `json:"lastName" binding:"max=100"`
	Email       *string           `json:"email" binding:"omitempty,email"`
	Phone       *string           `json:"phone" binding:"omitempty,max=32"`
	Company     *string           `json:"company" binding:"omitempty,max=200"`
	AddressLine *string           `json:"addressLine" binding:"omitempty,max=300"`
	City        *string           `json:"city" binding:"omitempty,max=100"`
	Country     *string           `json:"country" binding:"omitempty,max=100"`
	Tags        []string          `json:"tags"`
	Status      string            `json:"status" binding:"omitempty,oneof=active inactive archived"`
	IsFavorite  bool              `json:"isFavorite"`
	Metadata    map[string]string `json:"metadata"`
}
