package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"usof/internal/middleware"
	"usof/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside implements read-through caching. On a hit dst is filled from Redis;
// on a miss load must fill dst, which is then stored for ttl. Load errors
// are returned as-is and never cached. Without Redis, load is called directly.
func Aside(ctx context.Context, key string, dst any, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dst); jsonErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
		// Corrupt or outdated payload: fall through and reload.
		observability.CacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues("miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dst)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
