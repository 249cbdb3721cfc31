package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	retry "github.com/appleboy/go-httpretry"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Provider identity sources
const (
	// IdentityFromIDToken parses the OpenID Connect id_token returned with
	// the access token.
	IdentityFromIDToken = "id_token"
	// IdentityFromAPI fetches the user resource from the provider API.
	IdentityFromAPI = "api"
)

// ProviderConfig contains configuration for an OAuth provider
type ProviderConfig struct {
	Name           string
	ClientID       string
	ClientSecret   string
	AuthorizeURL   string
	AccessTokenURL string
	APIBaseURL     string
	RedirectURL    string
	Scopes         []string

	// IdentitySource selects how the claim set is obtained after the code
	// exchange: IdentityFromIDToken or IdentityFromAPI.
	IdentitySource string
	UserInfoPath   string // relative to APIBaseURL, used with IdentityFromAPI

	// OpenID Connect settings, used with IdentityFromIDToken
	Issuer  string
	JWKSURL string
}

// ExternalIdentity is the raw claim set reported by a provider. It is not
// reconciled with the local user directory.
type ExternalIdentity struct {
	Provider string         `json:"provider"`
	Claims   map[string]any `json:"claims"`
}

// Subject returns the provider-scoped user identifier
func (i *ExternalIdentity) Subject() string {
	if sub, ok := i.Claims["sub"].(string); ok && sub != "" {
		return sub
	}
	// GitHub reports a numeric id instead of sub
	if id, ok := i.Claims["id"].(float64); ok {
		return fmt.Sprintf("%.0f", id)
	}
	return ""
}

// Email returns the email claim, or "" when the provider sent none
func (i *ExternalIdentity) Email() string {
	email, _ := i.Claims["email"].(string)
	return email
}

// Name returns the display name claim, or "" when the provider sent none
func (i *ExternalIdentity) Name() string {
	name, _ := i.Claims["name"].(string)
	return name
}

// ProviderOption configures an OAuthProvider
type ProviderOption func(*OAuthProvider)

// WithHTTPClient sets the client used for token exchange and API calls
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *OAuthProvider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithMaxRetries sets how often idempotent API reads are retried
func WithMaxRetries(n int) ProviderOption {
	return func(p *OAuthProvider) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithKeySet replaces the remote JWKS used to verify id_tokens
func WithKeySet(ks oidc.KeySet) ProviderOption {
	return func(p *OAuthProvider) {
		p.keySet = ks
	}
}

// OAuthProvider drives the authorization-code flow against one provider
type OAuthProvider struct {
	cfg        ProviderConfig
	config     *oauth2.Config
	httpClient *http.Client
	maxRetries int
	keySet     oidc.KeySet
	verifier   *oidc.IDTokenVerifier
}

// NewOAuthProvider creates a provider from its configuration. No network
// calls are made here; the JWKS is fetched lazily on first verification.
func NewOAuthProvider(cfg ProviderConfig, opts ...ProviderOption) *OAuthProvider {
	p := &OAuthProvider{
		cfg: cfg,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.AccessTokenURL,
			},
		},
		httpClient: http.DefaultClient,
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.IdentitySource == IdentityFromIDToken {
		if p.keySet == nil {
			ctx := oidc.ClientContext(context.Background(), p.httpClient)
			p.keySet = oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		}
		p.verifier = oidc.NewVerifier(cfg.Issuer, p.keySet, &oidc.Config{
			ClientID: cfg.ClientID,
		})
	}

	return p
}

// Name returns the provider name
func (p *OAuthProvider) Name() string {
	return p.cfg.Name
}

// AuthCodeURL returns the authorization redirect target. The PKCE challenge
// is derived from verifier with S256.
func (p *OAuthProvider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades an authorization code for a provider token. It is never
// retried since codes are single-use.
func (p *OAuthProvider) Exchange(
	ctx context.Context,
	code, verifier string,
) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	return token, nil
}

// FetchIdentity returns the claim set describing the user behind token
func (p *OAuthProvider) FetchIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*ExternalIdentity, error) {
	var (
		claims map[string]any
		err    error
	)
	switch p.cfg.IdentitySource {
	case IdentityFromIDToken:
		claims, err = p.parseIDToken(ctx, token)
	default:
		claims, err = p.fetchUserInfo(ctx, token)
	}
	if err != nil {
		return nil, err
	}

	return &ExternalIdentity{Provider: p.cfg.Name, Claims: claims}, nil
}

func (p *OAuthProvider) parseIDToken(
	ctx context.Context,
	token *oauth2.Token,
) (map[string]any, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrMissingIDToken
	}

	idToken, err := p.verifier.Verify(oidc.ClientContext(ctx, p.httpClient), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id_token verification failed: %v", ErrIdentityUnavailable, err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: id_token claims: %v", ErrIdentityUnavailable, err)
	}
	return claims, nil
}

func (p *OAuthProvider) fetchUserInfo(
	ctx context.Context,
	token *oauth2.Token,
) (map[string]any, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	client, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(p.config.Client(ctx, token)),
		retry.WithMaxRetries(p.maxRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	var claims map[string]any
	if err := p.getJSON(ctx, client, p.cfg.UserInfoPath, &claims); err != nil {
		return nil, err
	}

	// GitHub hides non-public addresses from the user resource
	if p.cfg.Name == "github" {
		if email, _ := claims["email"].(string); email == "" {
			primary, err := p.githubPrimaryEmail(ctx, client)
			if err != nil {
				return nil, err
			}
			claims["email"] = primary
		}
	}

	return claims, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// githubPrimaryEmail returns the primary verified address, or the first
// verified one when no primary is verified.
func (p *OAuthProvider) githubPrimaryEmail(
	ctx context.Context,
	client *retry.Client,
) (string, error) {
	var emails []githubEmail
	if err := p.getJSON(ctx, client, "user/emails", &emails); err != nil {
		return "", err
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}
	for _, email := range emails {
		if email.Verified {
			return email.Email, nil
		}
	}

	return "", fmt.Errorf("%w: no verified email found", ErrIdentityUnavailable)
}

func (p *OAuthProvider) getJSON(
	ctx context.Context,
	client *retry.Client,
	path string,
	out any,
) error {
	endpoint := strings.TrimRight(p.cfg.APIBaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	resp, err := client.Get(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Limit body preview to avoid overwhelming logs
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("%w: %s - %s", ErrIdentityUnavailable, resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrIdentityUnavailable, err)
	}
	return nil
}
