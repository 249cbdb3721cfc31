package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-authgate/authcore/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeGitHub serves the token and user endpoints of a GitHub-style
// provider. Only the code "good-code" is accepted.
func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "gho_test",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    1001,
			"login": "alice",
			"email": "alice@example.com",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOAuthService(t *testing.T) *OAuthService {
	t.Helper()
	srv := newFakeGitHub(t)
	github := auth.NewOAuthProvider(auth.ProviderConfig{
		Name:           "github",
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		AuthorizeURL:   srv.URL + "/login/oauth/authorize",
		AccessTokenURL: srv.URL + "/login/oauth/access_token",
		APIBaseURL:     srv.URL + "/api/",
		RedirectURL:    "http://localhost:8080/api/oauth/auth/github",
		Scopes:         []string{"user:email"},
		IdentitySource: auth.IdentityFromAPI,
		UserInfoPath:   "user",
	}, auth.WithHTTPClient(srv.Client()), auth.WithMaxRetries(0))

	return NewOAuthService(auth.NewRegistry(github), nil)
}

func TestOAuthService_Begin(t *testing.T) {
	svc := newTestOAuthService(t)

	redirectURL, state, verifier, err := svc.Begin("github")
	require.NoError(t, err)
	assert.Len(t, state, stateLength)
	assert.NotEmpty(t, verifier)

	u, err := url.Parse(redirectURL)
	require.NoError(t, err)
	assert.Equal(t, "/login/oauth/authorize", u.Path)
	assert.Equal(t, state, u.Query().Get("state"))
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost:8080/api/oauth/auth/github", u.Query().Get("redirect_uri"))
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))

	_, secondState, secondVerifier, err := svc.Begin("github")
	require.NoError(t, err)
	assert.NotEqual(t, state, secondState)
	assert.NotEqual(t, verifier, secondVerifier)
}

func TestOAuthService_UnknownProvider(t *testing.T) {
	svc := newTestOAuthService(t)

	_, _, _, err := svc.Begin("myspace")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	identity, tok, err := svc.Complete(context.Background(), "myspace", "good-code", "v")
	assert.Nil(t, identity)
	assert.Nil(t, tok)
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.NotErrorIs(t, err, ErrProviderExchangeFailed)
}

func TestOAuthService_Complete(t *testing.T) {
	svc := newTestOAuthService(t)
	_, _, verifier, err := svc.Begin("github")
	require.NoError(t, err)

	identity, tok, err := svc.Complete(context.Background(), "github", "good-code", verifier)
	require.NoError(t, err)
	assert.Equal(t, "gho_test", tok.AccessToken)
	assert.Equal(t, "github", identity.Provider)
	assert.Equal(t, "1001", identity.Subject())
	assert.Equal(t, "alice@example.com", identity.Email())
}

func TestOAuthService_CompleteFailures(t *testing.T) {
	svc := newTestOAuthService(t)

	for name, code := range map[string]string{
		"rejected code": "bad-code",
		"missing code":  "",
	} {
		t.Run(name, func(t *testing.T) {
			identity, tok, err := svc.Complete(context.Background(), "github", code, "verifier")
			assert.Nil(t, identity)
			assert.Nil(t, tok)
			assert.ErrorIs(t, err, ErrProviderExchangeFailed)
		})
	}
}

func TestOAuthService_Providers(t *testing.T) {
	svc := newTestOAuthService(t)
	assert.Equal(t, []string{"github"}, svc.Providers())
}

func TestOAuthService_Supports(t *testing.T) {
	svc := newTestOAuthService(t)

	assert.True(t, svc.Supports("github"))
	assert.False(t, svc.Supports("google"))
	assert.False(t, svc.Supports(""))
}
