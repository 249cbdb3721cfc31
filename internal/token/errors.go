package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token is malformed, carries a bad
	// signature or was signed with an unexpected algorithm
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrUnsupportedAlgorithm indicates the configured signing algorithm is
	// not an HMAC algorithm
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)
