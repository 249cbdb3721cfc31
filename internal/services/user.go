package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-authgate/authcore/internal/auth"
	"github.com/go-authgate/authcore/internal/core"
	"github.com/go-authgate/authcore/internal/metrics"
	"github.com/go-authgate/authcore/internal/models"
	"github.com/go-authgate/authcore/internal/store"
	"github.com/go-authgate/authcore/internal/token"
	"github.com/go-authgate/authcore/internal/util"
)

// Registration results reported to metrics
const (
	registrationSuccess   = "success"
	registrationDuplicate = "duplicate"
	registrationError     = "error"
)

// Token validation results reported to metrics
const (
	validationValid   = "valid"
	validationExpired = "expired"
	validationInvalid = "invalid"
)

// UserService owns the local identity flows: registration, password login
// and bearer token resolution.
type UserService struct {
	directory     core.UserDirectory
	authenticator core.AuthProvider
	hasher        *auth.PasswordHasher
	tokens        core.TokenProvider
	tokenTTL      time.Duration
	metrics       metrics.Recorder
}

func NewUserService(
	directory core.UserDirectory,
	authenticator core.AuthProvider,
	hasher *auth.PasswordHasher,
	tokens core.TokenProvider,
	tokenTTL time.Duration,
	m metrics.Recorder,
) *UserService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return &UserService{
		directory:     directory,
		authenticator: authenticator,
		hasher:        hasher,
		tokens:        tokens,
		tokenTTL:      tokenTTL,
		metrics:       m,
	}
}

// Register creates an active local identity. The lookup beforehand only
// short-circuits the common case; the unique index on email decides races.
func (s *UserService) Register(
	ctx context.Context,
	email, password string,
) (*models.User, error) {
	_, err := s.directory.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.RecordRegistration(registrationDuplicate)
		return nil, ErrDuplicateIdentity
	case !errors.Is(err, store.ErrRecordNotFound):
		s.metrics.RecordRegistration(registrationError)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	digest, err := s.hasher.HashPassword(ctx, password)
	if err != nil {
		s.metrics.RecordRegistration(registrationError)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: digest,
		IsActive:     true,
	}
	if err := s.directory.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailConflict) {
			s.metrics.RecordRegistration(registrationDuplicate)
			return nil, ErrDuplicateIdentity
		}
		s.metrics.RecordRegistration(registrationError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordRegistration(registrationSuccess)
	log.Printf("[Auth] Registered user id=%d", user.ID)
	return user, nil
}

// Login exchanges an email and password for a signed access token whose
// subject is the email.
func (s *UserService) Login(
	ctx context.Context,
	email, password string,
) (*token.Result, error) {
	start := time.Now()

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.metrics.RecordLogin(false, time.Since(start))
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s authentication failed: %w", s.authenticator.Name(), err)
	}

	genStart := time.Now()
	result, err := s.tokens.GenerateToken(ctx, user.Email, nil, s.tokenTTL)
	if err != nil {
		s.metrics.RecordLogin(false, time.Since(start))
		return nil, err
	}
	s.metrics.RecordTokenIssued(time.Since(genStart))
	s.metrics.RecordLogin(true, time.Since(start))

	return result, nil
}

// Resolve maps a raw bearer token to the identity it names. The directory
// is read on every call. Every failure is reported as ErrCredentialsInvalid
// with the cause wrapped for logging.
func (s *UserService) Resolve(ctx context.Context, rawToken string) (*models.User, error) {
	start := time.Now()
	claims, err := s.tokens.ValidateToken(ctx, rawToken)
	if err != nil {
		result := validationInvalid
		if errors.Is(err, token.ErrExpiredToken) {
			result = validationExpired
		}
		s.metrics.RecordTokenValidation(result, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrCredentialsInvalid, err)
	}
	s.metrics.RecordTokenValidation(validationValid, time.Since(start))

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrCredentialsInvalid)
	}

	user, err := s.directory.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			log.Printf("[Auth] Failed to resolve token subject: %v", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCredentialsInvalid, err)
	}
	return user, nil
}

// EnsureSuperuser creates the initial account when no identity with email
// exists yet. An empty password is replaced with a random one, logged once.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}

	_, err := s.directory.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up superuser: %w", err)
	}

	generated := password == ""
	if generated {
		if password, err = util.CryptoRandomString(16); err != nil {
			return err
		}
	}

	if _, err := s.Register(ctx, email, password); err != nil {
		// Another instance seeded it first
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil
		}
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	if generated {
		log.Printf("Created default user: %s / %s", email, password)
	} else {
		log.Printf("Created default user: %s", email)
	}
	return nil
}
