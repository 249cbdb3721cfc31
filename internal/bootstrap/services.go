package bootstrap

import (
	"fmt"

	"github.com/go-authgate/authcore/internal/auth"
	"github.com/go-authgate/authcore/internal/config"
	"github.com/go-authgate/authcore/internal/metrics"
	"github.com/go-authgate/authcore/internal/services"
	"github.com/go-authgate/authcore/internal/store"
	"github.com/go-authgate/authcore/internal/token"
)

// initializeMetrics returns the Prometheus recorder, or a no-op one when
// metrics are disabled
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	return metrics.Init(cfg.MetricsEnabled)
}

// initializeUserService builds the password hasher, the token provider and
// the local authenticator behind the user service
func initializeUserService(
	cfg *config.Config,
	db *store.Store,
	prometheusMetrics metrics.Recorder,
) (*services.UserService, error) {
	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	tokenProvider, err := token.NewLocalTokenProvider(
		cfg.SecretKey,
		cfg.JWTAlgorithm,
		token.WithTokenType(cfg.AccessTokenType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token provider: %w", err)
	}

	return services.NewUserService(
		db,
		auth.NewLocalAuthProvider(db, hasher),
		hasher,
		tokenProvider,
		cfg.AccessTokenExpire,
		prometheusMetrics,
	), nil
}
