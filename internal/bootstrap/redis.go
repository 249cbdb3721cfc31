package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/authcore/internal/config"

	"github.com/redis/go-redis/v9"
)

// initializeRateLimitRedisClient connects the Redis client backing the
// login rate limiter. It returns nil when rate limiting is off or uses the
// memory store.
func initializeRateLimitRedisClient(
	ctx context.Context,
	cfg *config.Config,
) (*redis.Client, error) {
	if !cfg.EnableRateLimit || cfg.RateLimitStore != config.RateLimitStoreRedis {
		return nil, nil //nolint:nilnil // redis client not needed in this configuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.RedisConnTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("Rate limit store connected to Redis (address: %s, db: %d)", cfg.RedisAddr, cfg.RedisDB)
	return client, nil
}
