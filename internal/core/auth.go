package core

import (
	"context"

	"github.com/go-authgate/authcore/internal/models"
)

// UserDirectory is the lookup/insert contract over the persisted identity
// table. Implementations must enforce email uniqueness at the storage level
// and report a violation as store.ErrEmailConflict.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// AuthProvider is the interface that password-based authentication
// backends must implement.
type AuthProvider interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Name() string
}
