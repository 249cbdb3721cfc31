package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/authcore/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ core.TokenProvider = (*LocalTokenProvider)(nil)

// registeredClaims are set by the provider and never taken from extra claims
var registeredClaims = []string{"sub", "exp", "iat", "jti"}

// Option configures a LocalTokenProvider
type Option func(*LocalTokenProvider)

// WithClock replaces time.Now, for tests that need a fixed clock
func WithClock(now func() time.Time) Option {
	return func(p *LocalTokenProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTokenType sets the token type label reported with issued tokens
func WithTokenType(label string) Option {
	return func(p *LocalTokenProvider) {
		if label != "" {
			p.tokenType = label
		}
	}
}

// LocalTokenProvider generates and validates HMAC-signed JWT tokens locally.
// The secret and algorithm are fixed for the life of the process; changing
// either invalidates every outstanding token.
type LocalTokenProvider struct {
	secret    []byte
	method    jwt.SigningMethod
	tokenType string
	now       func() time.Time
}

// NewLocalTokenProvider creates a new local token provider signing with
// secret under algorithm (HS256, HS384 or HS512).
func NewLocalTokenProvider(secret, algorithm string, opts ...Option) (*LocalTokenProvider, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if secret == "" {
		return nil, errors.New("token signing secret is empty")
	}

	p := &LocalTokenProvider{
		secret:    []byte(secret),
		method:    method,
		tokenType: TokenTypeBearer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// GenerateToken creates a JWT for subject that expires ttl from now. A
// non-positive ttl falls back to DefaultTTL.
func (p *LocalTokenProvider) GenerateToken(
	ctx context.Context,
	subject string,
	extra map[string]any,
	ttl time.Duration,
) (*Result, error) {
	if subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrTokenGeneration)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := p.now()
	// exp is encoded in whole seconds
	expiresAt := time.Unix(now.Add(ttl).Unix(), 0)

	claims := make(jwt.MapClaims, len(extra)+len(registeredClaims))
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["exp"] = expiresAt.Unix()
	claims["iat"] = now.Unix()
	claims["jti"] = uuid.New().String()

	tokenString, err := jwt.NewWithClaims(p.method, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &Result{
		TokenString: tokenString,
		TokenType:   p.tokenType,
		ExpiresAt:   expiresAt,
		Claims:      claims,
	}, nil
}

// expirySecond keeps a token valid through the whole second named by its exp
// claim, so it expires only once now > exp.
const expirySecond = time.Second

// ValidateToken verifies the signature and expiry of tokenString.
func (p *LocalTokenProvider) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*ValidationResult, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(expirySecond),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &ValidationResult{
		Subject:   subject,
		ExpiresAt: exp.Time,
		Claims:    claims,
	}, nil
}

// TokenType returns the label reported with issued tokens
func (p *LocalTokenProvider) TokenType() string {
	return p.tokenType
}

// Name returns provider name for logging
func (p *LocalTokenProvider) Name() string {
	return "local"
}
