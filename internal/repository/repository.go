package repository

import (
	"github.com/precisesoft/ConnectKit-sub000/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Contact ContactRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Contact: NewContactRepository(db),
	}
}
