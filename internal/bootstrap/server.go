package bootstrap

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/authcore/internal/config"
	"github.com/go-authgate/authcore/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob drains in-flight requests within timeout, then runs
// afterDrain. graceful runs shutdown jobs concurrently, so anything requests
// depend on is released here rather than in a job of its own.
func addServerShutdownJob(
	m *graceful.Manager,
	srv *http.Server,
	timeout time.Duration,
	afterDrain ...func() error,
) {
	m.AddShutdownJob(func() error {
		return shutdownServer(srv, timeout, afterDrain...)
	})
}

// shutdownServer stops srv and then runs each closer in order, returning the
// first error
func shutdownServer(srv *http.Server, timeout time.Duration, closers ...func() error) error {
	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	} else {
		log.Println("Server exited")
	}

	for _, closeFn := range closers {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// redisCloser closes the rate limit Redis client
func redisCloser(redisClient *redis.Client) func() error {
	return func() error {
		if redisClient == nil {
			return nil
		}
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	}
}

// databaseCloser closes the connection pool
func databaseCloser(db *store.Store) func() error {
	return func() error {
		if db == nil {
			return nil
		}
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
			return err
		}
		log.Println("Database connection closed")
		return nil
	}
}
