package services

import (
	"errors"

	"github.com/go-authgate/authcore/internal/auth"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email, a wrong
	// password or an inactive account alike.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrCredentialsInvalid is returned by Resolve for any bearer token that
	// does not lead to a live identity.
	ErrCredentialsInvalid = errors.New("could not validate credentials")

	// ErrDuplicateIdentity indicates the email is already registered
	ErrDuplicateIdentity = errors.New("email already registered")

	// ErrUnknownProvider indicates no OAuth provider is configured under the
	// requested name
	ErrUnknownProvider = auth.ErrUnknownProvider

	// ErrProviderExchangeFailed indicates the OAuth callback could not be
	// completed. The wrapped cause is meant for logs only.
	ErrProviderExchangeFailed = errors.New("oauth provider exchange failed")
)
