package domain

import "time"

// ContactStatus enumerates contact lifecycle states
type ContactStatus string

const (
	ContactStatusActive   ContactStatus = "active"
	ContactStatusInactive ContactStatus = "inactive"
	ContactStatusArchived ContactStatus = "archived"
)

// Valid reports whether the status is one of the known values
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactStatusActive, ContactStatusInactive, ContactStatusArchived:
		return true
	}
	return false
}

// Contact represents a contact owned by a single user.
// Email, when present, is unique within the owner's contact set only.
type Contact struct {
	ID          string            `json:"id" db:"id"`
	UserID      string            `json:"user_id" db:"user_id"`
	FirstName   string            `json:"first_name" db:"first_name"`
	LastName    string            `json:"last_name" db:"last_name"`
	Email       *string           `json:"email" db:"email"`
	Phone       *string           `json:"phone" db:"phone"`
	Company     *string           `json:"company" db:"company"`
	AddressLine *string           `json:"address_line" db:"address_line"`
	City        *string           `json:"city" db:"city"`
	Country     *string           `json:"country" db:"country"`
	Tags        []string          `json:"tags" db:"tags"`
	Status      ContactStatus     `json:"status" db:"status"`
	IsFavorite  bool              `json:"is_favorite" db:"is_favorite"`
	Metadata    map[string]string `json:"metadata" db:"metadata"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time        `json:"-" db:"deleted_at"`
}

// ContactFilter narrows contact listings
type ContactFilter struct {
	Search     string
	Status     ContactStatus
	Tag        string
	IsFavorite *bool
	Page       int
	PerPage    int
}
