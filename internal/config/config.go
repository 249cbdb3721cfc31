package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Default provider endpoints
const (
	DefaultGitHubAccessTokenURL = "https://github.com/login/oauth/access_token"
	DefaultGitHubAPIBaseURL     = "https://api.github.com/"

	DefaultGoogleIssuer         = "https://accounts.google.com"
	DefaultGoogleAuthorizeURL   = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultGoogleAccessTokenURL = "https://oauth2.googleapis.com/token"
	DefaultGoogleJWKSURL        = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultGoogleAPIBaseURL     = "https://openidconnect.googleapis.com/v1/"
)

// minSecretLength is the shortest signing secret accepted outside development.
const minSecretLength = 32

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	ProjectName string
	Environment string

	// Token settings
	SecretKey         string
	JWTAlgorithm      string
	AccessTokenExpire time.Duration
	AccessTokenType   string

	// Session settings (OAuth state cookie)
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string
	DBInitTimeout  time.Duration

	// Shutdown
	ServerShutdownTimeout time.Duration

	// Password hashing
	BcryptCost      int
	HashConcurrency int

	// Default superuser
	FirstSuperuserEmail    string
	FirstSuperuserPassword string

	// Google OAuth (OpenID Connect)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleScopes       []string

	// GitHub OAuth
	GitHubClientID       string
	GitHubClientSecret   string
	GitHubRedirectURL    string
	GitHubScopes         []string
	GitHubAccessTokenURL string

	// OAuth HTTP client settings
	OAuthTimeout    time.Duration
	OAuthMaxRetries int

	// Metrics
	MetricsEnabled bool
	MetricsToken   string // optional bearer token guarding /metrics

	// Rate limiting
	EnableRateLimit   bool
	RateLimitStore    string
	LoginRateLimit    int // requests per minute
	RegisterRateLimit int // requests per minute

	// Redis (rate limit store)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_URL", "app.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_URL", ""))
	}

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		ProjectName: getEnv("PROJECT_NAME", "authcore"),
		Environment: getEnv("ENVIRONMENT", EnvDevelopment),

		SecretKey:         getEnv("SECRET_KEY", ""),
		JWTAlgorithm:      getEnv("JWT_ALGORITHM", "HS256"),
		AccessTokenExpire: getEnvDuration("ACCESS_TOKEN_EXPIRE", 30*time.Minute),
		AccessTokenType:   getEnv("ACCESS_TOKEN_TYPE", "bearer"),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 600),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),

		BcryptCost:      getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		HashConcurrency: getEnvInt("HASH_CONCURRENCY", runtime.NumCPU()),

		FirstSuperuserEmail:    getEnv("FIRST_SUPERUSER_EMAIL", "admin@example.com"),
		FirstSuperuserPassword: getEnv("FIRST_SUPERUSER_PASSWORD", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		GoogleScopes:       getEnvSlice("GOOGLE_SCOPES", []string{"openid", "email", "profile"}),

		GitHubClientID:       getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:   getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubRedirectURL:    getEnv("GITHUB_REDIRECT_URL", ""),
		GitHubScopes:         getEnvSlice("GITHUB_SCOPES", []string{"user:email"}),
		GitHubAccessTokenURL: getEnv("GITHUB_ACCESS_TOKEN_URL", DefaultGitHubAccessTokenURL),

		OAuthTimeout:    getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthMaxRetries: getEnvInt("OAUTH_MAX_RETRIES", 2),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		EnableRateLimit:   getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:    getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 10),
		RegisterRateLimit: getEnvInt("REGISTER_RATE_LIMIT", 5),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
	}
}

// IsProduction reports whether the service runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks the loaded configuration for values that would make the
// service insecure or unable to start.
func (c *Config) Validate() error {
	if !supportedAlgorithms[c.JWTAlgorithm] {
		return fmt.Errorf(
			"invalid JWT_ALGORITHM value: %q (must be one of HS256, HS384, HS512)",
			c.JWTAlgorithm,
		)
	}

	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.IsProduction() && len(c.SecretKey) < minSecretLength {
		return fmt.Errorf("SECRET_KEY must be at least %d bytes in production", minSecretLength)
	}

	if c.AccessTokenExpire <= 0 {
		return fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE value: %s", c.AccessTokenExpire)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf(
			"invalid BCRYPT_COST value: %d (must be between %d and %d)",
			c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost,
		)
	}

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER value: %q (must be sqlite or postgres)", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}

	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
