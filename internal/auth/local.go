package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-authgate/authcore/internal/core"
	"github.com/go-authgate/authcore/internal/models"
	"github.com/go-authgate/authcore/internal/store"
)

var _ core.AuthProvider = (*LocalAuthProvider)(nil)

// LocalAuthProvider handles local database authentication
type LocalAuthProvider struct {
	directory core.UserDirectory
	hasher    *PasswordHasher
}

// NewLocalAuthProvider creates a new local authentication provider
func NewLocalAuthProvider(d core.UserDirectory, h *PasswordHasher) *LocalAuthProvider {
	return &LocalAuthProvider{directory: d, hasher: h}
}

// Authenticate verifies credentials against the local directory. An unknown
// email, a wrong password and an inactive account all return
// ErrInvalidCredentials.
func (p *LocalAuthProvider) Authenticate(
	ctx context.Context,
	email, password string,
) (*models.User, error) {
	user, err := p.directory.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		p.hasher.burn(ctx, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := p.hasher.VerifyPassword(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Name returns provider name for logging
func (p *LocalAuthProvider) Name() string {
	return "local"
}
