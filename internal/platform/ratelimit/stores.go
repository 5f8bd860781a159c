package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewMemoryStore returns a process-local store. Counters are not shared between replicas.
func NewMemoryStore(prefix string) limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
}

// NewRedisStore connects to redisURL and returns a store shared by every replica.
// The caller owns the returned client.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (limiter.Store, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, client, nil
}

// Cleaner purges counter windows that have fully elapsed.
type Cleaner interface {
	Cleanup(ctx context.Context, now time.Time) (int64, error)
}

// RunCleanup calls c.Cleanup every interval until ctx is done. Failures are logged and ignored.
func RunCleanup(ctx context.Context, c Cleaner, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			deleted, err := c.Cleanup(ctx, now)
			if err != nil {
				logger.Warn("Rate limit window cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if deleted > 0 {
				logger.Debug("Rate limit windows purged", slog.Int64("deleted", deleted))
			}
		}
	}
}
