package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-authgate/authcore/internal/auth"
	"github.com/go-authgate/authcore/internal/metrics"
	"github.com/go-authgate/authcore/internal/util"

	"golang.org/x/oauth2"
)

// stateLength is the number of hex characters in an OAuth state value
const stateLength = 32

// OAuthService negotiates logins with external identity providers. The
// identity it returns is the provider's claim set as-is; it is not linked to
// or created in the local directory.
type OAuthService struct {
	registry *auth.Registry
	metrics  metrics.Recorder
}

func NewOAuthService(registry *auth.Registry, m metrics.Recorder) *OAuthService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return &OAuthService{registry: registry, metrics: m}
}

// Providers lists the configured provider names
func (s *OAuthService) Providers() []string {
	return s.registry.Names()
}

// Supports reports whether a provider is configured under name
func (s *OAuthService) Supports(name string) bool {
	_, err := s.registry.Get(name)
	return err == nil
}

// Begin starts a login attempt with the named provider. The caller must keep
// state and verifier until the callback arrives.
func (s *OAuthService) Begin(name string) (redirectURL, state, verifier string, err error) {
	provider, err := s.registry.Get(name)
	if err != nil {
		return "", "", "", err
	}

	state, err = util.CryptoRandomString(stateLength)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	verifier = oauth2.GenerateVerifier()

	return provider.AuthCodeURL(state, verifier), state, verifier, nil
}

// Complete exchanges the authorization code and reads the identity claims.
// Any failure after the provider lookup is ErrProviderExchangeFailed and
// nothing partial is returned.
func (s *OAuthService) Complete(
	ctx context.Context,
	name, code, verifier string,
) (*auth.ExternalIdentity, *oauth2.Token, error) {
	provider, err := s.registry.Get(name)
	if err != nil {
		return nil, nil, err
	}

	identity, tok, err := s.complete(ctx, provider, code, verifier)
	if err != nil {
		s.metrics.RecordOAuthCallback(name, false)
		log.Printf("[OAuth] %s login failed: %v", name, err)
		return nil, nil, fmt.Errorf("%w: %v", ErrProviderExchangeFailed, err)
	}

	s.metrics.RecordOAuthCallback(name, true)
	log.Printf("[OAuth] %s login succeeded for subject=%s", name, identity.Subject())
	return identity, tok, nil
}

func (s *OAuthService) complete(
	ctx context.Context,
	provider *auth.OAuthProvider,
	code, verifier string,
) (*auth.ExternalIdentity, *oauth2.Token, error) {
	if code == "" {
		return nil, nil, errors.New("missing authorization code")
	}

	tok, err := provider.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, nil, err
	}

	identity, err := provider.FetchIdentity(ctx, tok)
	if err != nil {
		return nil, nil, err
	}
	return identity, tok, nil
}
