package bootstrap

import (
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-authgate/authcore/internal/auth"
	"github.com/go-authgate/authcore/internal/config"
	"github.com/go-authgate/authcore/internal/services"

	"github.com/appleboy/go-httpclient"
	githubOAuth "golang.org/x/oauth2/github"
)

// callbackPath is where providers redirect back to, relative to BASE_URL
const callbackPath = "/api/oauth/auth/"

// initializeOAuthProviders registers every provider whose client
// credentials are configured
func initializeOAuthProviders(cfg *config.Config, httpClient *http.Client) *auth.Registry {
	opts := []auth.ProviderOption{
		auth.WithHTTPClient(httpClient),
		auth.WithMaxRetries(cfg.OAuthMaxRetries),
	}

	var providers []*auth.OAuthProvider

	// Google (OpenID Connect)
	switch {
	case cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "":
		// Skip Google OAuth
	default:
		redirectURL := callbackURL(cfg, cfg.GoogleRedirectURL, "google")
		providers = append(providers, auth.NewOAuthProvider(auth.ProviderConfig{
			Name:           "google",
			ClientID:       cfg.GoogleClientID,
			ClientSecret:   cfg.GoogleClientSecret,
			AuthorizeURL:   config.DefaultGoogleAuthorizeURL,
			AccessTokenURL: config.DefaultGoogleAccessTokenURL,
			APIBaseURL:     config.DefaultGoogleAPIBaseURL,
			RedirectURL:    redirectURL,
			Scopes:         cfg.GoogleScopes,
			IdentitySource: auth.IdentityFromIDToken,
			Issuer:         config.DefaultGoogleIssuer,
			JWKSURL:        config.DefaultGoogleJWKSURL,
		}, opts...))
		log.Printf("Google OAuth configured: redirect=%s", redirectURL)
	}

	// GitHub OAuth
	switch {
	case cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "":
		// Skip GitHub OAuth
	default:
		redirectURL := callbackURL(cfg, cfg.GitHubRedirectURL, "github")
		providers = append(providers, auth.NewOAuthProvider(auth.ProviderConfig{
			Name:           "github",
			ClientID:       cfg.GitHubClientID,
			ClientSecret:   cfg.GitHubClientSecret,
			AuthorizeURL:   githubOAuth.Endpoint.AuthURL,
			AccessTokenURL: cfg.GitHubAccessTokenURL,
			APIBaseURL:     config.DefaultGitHubAPIBaseURL,
			RedirectURL:    redirectURL,
			Scopes:         cfg.GitHubScopes,
			IdentitySource: auth.IdentityFromAPI,
			UserInfoPath:   "user",
		}, opts...))
		log.Printf("GitHub OAuth configured: redirect=%s", redirectURL)
	}

	return auth.NewRegistry(providers...)
}

// callbackURL returns the configured redirect URL, or the callback route
// under BASE_URL
func callbackURL(cfg *config.Config, configured, provider string) string {
	if configured != "" {
		return configured
	}
	return strings.TrimRight(cfg.BaseURL, "/") + callbackPath + provider
}

// createOAuthHTTPClient creates an HTTP client for OAuth requests with optimized connection pool
func createOAuthHTTPClient(cfg *config.Config) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	httpClient, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.OAuthTimeout),
		httpclient.WithTransport(transport),
	)
	if err != nil {
		log.Fatalf("Failed to create OAuth HTTP client: %v", err)
	}

	return httpClient
}

// logOAuthProvidersStatus logs enabled OAuth providers
func logOAuthProvidersStatus(oauthService *services.OAuthService) {
	if providers := oauthService.Providers(); len(providers) > 0 {
		log.Printf("OAuth providers enabled: %v", providers)
	} else {
		log.Printf("No OAuth providers configured")
	}
}
