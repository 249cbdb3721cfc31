package core

import (
	"context"
	"time"
)

// TokenResult is the outcome of a token generation call.
type TokenResult struct {
	TokenString string
	TokenType   string
	ExpiresAt   time.Time
	Claims      map[string]any
}

// TokenValidationResult is the outcome of a token validation call.
type TokenValidationResult struct {
	Subject   string
	ExpiresAt time.Time
	Claims    map[string]any
}

// TokenProvider issues and verifies signed bearer credentials.
type TokenProvider interface {
	// GenerateToken signs a token for subject. extra claims are merged in
	// but cannot override the registered ones. A non-positive ttl selects
	// the provider's fallback lifetime.
	GenerateToken(
		ctx context.Context,
		subject string,
		extra map[string]any,
		ttl time.Duration,
	) (*TokenResult, error)
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResult, error)
	Name() string
}
