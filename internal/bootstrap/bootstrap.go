package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-authgate/authcore/internal/config"
	"github.com/go-authgate/authcore/internal/metrics"
	"github.com/go-authgate/authcore/internal/services"
	"github.com/go-authgate/authcore/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	RateLimitRedisClient *redis.Client

	// Services
	UserService  *services.UserService
	OAuthService *services.OAuthService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(ctx); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		_ = app.DB.Close()
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services and seeds the first account
func (app *Application) initializeBusinessLayer(ctx context.Context) error {
	var err error

	app.UserService, err = initializeUserService(app.Config, app.DB, app.MetricsRecorder)
	if err != nil {
		return err
	}

	registry := initializeOAuthProviders(app.Config, createOAuthHTTPClient(app.Config))
	app.OAuthService = services.NewOAuthService(registry, app.MetricsRecorder)
	logOAuthProvidersStatus(app.OAuthService)

	seedCtx, cancel := context.WithTimeout(ctx, app.Config.DBInitTimeout)
	defer cancel()
	if err := app.UserService.EnsureSuperuser(
		seedCtx,
		app.Config.FirstSuperuserEmail,
		app.Config.FirstSuperuserPassword,
	); err != nil {
		return fmt.Errorf("failed to seed default user: %w", err)
	}

	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(app.UserService, app.OAuthService)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(
		m,
		app.Server,
		app.Config.ServerShutdownTimeout,
		redisCloser(app.RateLimitRedisClient),
		databaseCloser(app.DB),
	)

	<-m.Done()
}

// closeInfrastructure releases connections opened before a startup failure
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
