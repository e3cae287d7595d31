package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"usof/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// Throttle is a per-caller request budget for one family of write routes.
type Throttle struct {
	Name   string
	Max    int
	Window time.Duration
}

// Budgets for the forum's write paths.
var (
	ThrottlePosts     = Throttle{Name: "create_post", Max: 5, Window: time.Minute}
	ThrottleComments  = Throttle{Name: "create_comment", Max: 10, Window: time.Minute}
	ThrottleReactions = Throttle{Name: "react", Max: 60, Window: time.Minute}
)

var errNoStore = errors.New("rate limit store unavailable")

// fixedWindow increments the counter and starts its window on the first hit,
// atomically. It returns the count and the remaining window in milliseconds.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RateLimitEnabled reports whether env throttles requests. Local and test
// runs do not.
func RateLimitEnabled(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "test", "development":
		return false
	}
	return true
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Duration
}

// RateLimiter counts requests in fixed Redis windows keyed by throttle and
// caller.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
	caller  func(*fiber.Ctx) string
}

// NewRateLimiter returns a limiter for env. caller names the requester,
// typically "user:<id>" or "ip:<addr>".
func NewRateLimiter(rdb *redis.Client, env string, caller func(*fiber.Ctx) string) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: RateLimitEnabled(env), caller: caller}
}

// Allow consumes one request of t on behalf of caller.
func (l *RateLimiter) Allow(ctx context.Context, t Throttle, caller string) (Decision, error) {
	if l.rdb == nil {
		return Decision{}, errNoStore
	}
	key := fmt.Sprintf("rl:%s:%s", t.Name, caller)
	res, err := fixedWindow.Run(ctx, l.rdb, []string{key}, t.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}
	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = t.Window
	}
	return Decision{
		Allowed:   count <= int64(t.Max),
		Remaining: max(t.Max-int(count), 0),
		Reset:     ttl,
	}, nil
}

// Handler enforces t on a route. Callers over budget get 429 with a
// Retry-After header.
func (l *RateLimiter) Handler(t Throttle, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.enabled {
			return c.Next()
		}
		ctx := c.UserContext()

		d, err := l.Allow(ctx, t, l.caller(c))
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit unavailable, failing closed",
					slog.String("throttle", t.Name),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(t.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.Reset.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: fmt.Sprintf("too many %s requests, try again later", strings.ReplaceAll(t.Name, "_", " ")),
			})
		}
		return c.Next()
	}
}
