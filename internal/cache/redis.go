// Package cache keeps read-mostly forum entities (posts, users, categories)
// in Redis. Every helper degrades to a no-op when no client is installed.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"usof/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

const pingTimeout = 5 * time.Second

// keyFamily maps a key onto the entity it caches so error metrics stay low
// cardinality.
func keyFamily(key string) string {
	prefix, _, ok := strings.Cut(key, ":")
	if !ok {
		return "other"
	}
	switch prefix {
	case "post", "user", "category":
		return prefix
	case "rl":
		return "ratelimit"
	}
	return "other"
}

// cmdFamily returns the key family of the first key argument of cmd.
func cmdFamily(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return "other"
	}
	key, ok := args[1].(string)
	if !ok {
		return "other"
	}
	return keyFamily(key)
}

// errorHook counts failed commands per key family. Misses are not errors.
type errorHook struct{}

func (errorHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (errorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmdFamily(cmd)).Inc()
		}
		return err
	}
}

func (errorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			for _, cmd := range cmds {
				if cmd.Err() != nil && !errors.Is(cmd.Err(), redis.Nil) {
					middleware.RedisErrors.WithLabelValues(cmdFamily(cmd)).Inc()
				}
			}
		}
		return err
	}
}

// Connect dials Redis from either a redis:// URL or a bare host:port and
// checks the connection with a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	}

	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	c.AddHook(errorHook{})
	return c, nil
}

// InitRedis installs a client for addr. When Redis is unreachable the
// forum serves every read from the database.
func InitRedis(addr string) {
	c, err := Connect(context.Background(), addr)
	if err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		client = nil
		return
	}
	middleware.Logger.Info("Redis connected successfully", slog.String("addr", c.Options().Addr))
	client = c
}

// SetClient installs an already-connected client. Passing nil disables caching.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorHook{})
	}
	client = c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}
