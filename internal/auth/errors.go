package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Password hashing errors
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	ErrEmptyPassword   = errors.New("password is empty")

	// External provider errors
	ErrUnknownProvider     = errors.New("unknown oauth provider")
	ErrTokenExchange       = errors.New("failed to exchange authorization code")
	ErrIdentityUnavailable = errors.New("failed to retrieve identity from provider")
	ErrMissingIDToken      = errors.New("provider did not return an id_token")
)
