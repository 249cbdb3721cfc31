package bootstrap

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-authgate/authcore/internal/config"
)

// defaultSessionSecret is the placeholder shipped in config defaults
const defaultSessionSecret = "session-secret-change-in-production"

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateSessionConfig(cfg); err != nil {
		return fmt.Errorf("invalid session configuration: %w", err)
	}
	if err := validateOAuthConfig(cfg); err != nil {
		return fmt.Errorf("invalid OAuth configuration: %w", err)
	}
	return nil
}

// validateSessionConfig refuses the placeholder cookie secret in production
func validateSessionConfig(cfg *config.Config) error {
	switch {
	case cfg.SessionSecret == "":
		return errors.New("SESSION_SECRET is required")
	case cfg.IsProduction() && cfg.SessionSecret == defaultSessionSecret:
		return errors.New("SESSION_SECRET must be changed in production")
	case cfg.SessionMaxAge <= 0:
		return fmt.Errorf("invalid SESSION_MAX_AGE value: %d", cfg.SessionMaxAge)
	}
	return nil
}

// validateOAuthConfig checks that each provider is either fully configured
// or not configured at all
func validateOAuthConfig(cfg *config.Config) error {
	if err := validateClientPair("GOOGLE", cfg.GoogleClientID, cfg.GoogleClientSecret); err != nil {
		return err
	}
	if err := validateClientPair("GITHUB", cfg.GitHubClientID, cfg.GitHubClientSecret); err != nil {
		return err
	}
	if cfg.OAuthMaxRetries < 0 {
		return fmt.Errorf("invalid OAUTH_MAX_RETRIES value: %d", cfg.OAuthMaxRetries)
	}
	return nil
}

func validateClientPair(prefix, clientID, clientSecret string) error {
	switch {
	case clientID == "" && clientSecret == "":
		return nil
	case clientID == "":
		return fmt.Errorf("%s_CLIENT_ID is required when %s_CLIENT_SECRET is set", prefix, prefix)
	case clientSecret == "":
		log.Printf("Warning: %s_CLIENT_ID set without %s_CLIENT_SECRET", prefix, prefix)
		return fmt.Errorf("%s_CLIENT_SECRET is required when %s_CLIENT_ID is set", prefix, prefix)
	}
	return nil
}
