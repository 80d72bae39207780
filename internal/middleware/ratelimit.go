package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/nightclub-reservation/internal/config"
)

// Verdict is the limiter's answer for one request.
type Verdict struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter takes one token from the bucket named key.
type Limiter interface {
	Take(ctx context.Context, key string, b config.Bucket, now time.Time) (Verdict, error)
}

// gcraScript keeps one "theoretical arrival time" per key.  A request is
// admitted while that time stays within Burst emission intervals of now.
var gcraScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local every = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local tolerance = every * burst

local tat = tonumber(redis.call('GET', KEYS[1]))
if not tat or tat < now then
	tat = now
end
local next_tat = tat + every
local wait = next_tat - now - tolerance
if wait > 0 then
	return {0, 0, wait}
end
redis.call('SET', KEYS[1], next_tat, 'PX', next_tat - now)
return {1, math.floor((tolerance - (next_tat - now)) / every), 0}
`)

type redisLimiter struct {
	rdb *redis.Client
}

func (l redisLimiter) Take(ctx context.Context, key string, b config.Bucket, now time.Time) (Verdict, error) {
	vals, err := gcraScript.Run(ctx, l.rdb, []string{key}, now.UnixMilli(), b.Every.Milliseconds(), b.Burst).Int64Slice()
	if err != nil {
		return Verdict{}, err
	}
	if len(vals) != 3 {
		return Verdict{}, fmt.Errorf("ratelimit: unexpected reply %v", vals)
	}
	return Verdict{
		Allowed:    vals[0] == 1,
		Remaining:  int(vals[1]),
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// KeyFunc names the bucket a request draws from.
type KeyFunc func(c echo.Context) string

// ClientKey identifies the caller: the user when signed in, the IP
// otherwise.
func ClientKey(c echo.Context) string {
	if s := SessionFromContext(c); s.Authenticated() {
		return "user:" + strconv.FormatUint(s.UserID, 10)
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// DraftKey gives every draft its own bucket, whoever submits it.
func DraftKey(c echo.Context) string {
	return "draft:" + c.Param("id")
}

// RateLimiter hands out the two rate tiers.  A nil *RateLimiter lets
// every request through.
type RateLimiter struct {
	cfg   config.RateLimitConfig
	store Limiter
	now   func() time.Time
}

// NewRateLimiter returns a Redis-backed limiter, or nil when rate limiting
// is disabled or Redis is unavailable.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *RateLimiter {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return NewRateLimiterWith(cfg, redisLimiter{rdb: rdb})
}

// NewRateLimiterWith builds a limiter over any token store.
func NewRateLimiterWith(cfg config.RateLimitConfig, store Limiter) *RateLimiter {
	return &RateLimiter{cfg: cfg, store: store, now: time.Now}
}

// Browse is the per-client limit placed on whole route groups.
func (r *RateLimiter) Browse() echo.MiddlewareFunc {
	if r == nil {
		return passthrough
	}
	return r.limit("browse", r.cfg.Browse, ClientKey)
}

// Write is the strict limit for one write endpoint.  Routes passing the
// same scope share a bucket.
func (r *RateLimiter) Write(scope string, key KeyFunc) echo.MiddlewareFunc {
	if r == nil {
		return passthrough
	}
	return r.limit(scope, r.cfg.Write, key)
}

func (r *RateLimiter) limit(scope string, b config.Bucket, key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := r.cfg.Prefix + ":" + scope + ":" + key(c)
			v, err := r.store.Take(c.Request().Context(), k, b, r.now())
			if err != nil {
				// fail open
				if r.cfg.Debug {
					c.Logger().Warnf("ratelimit %s: %v", k, err)
				}
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(b.Burst))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
			if r.cfg.Debug {
				h.Set("X-RateLimit-Key", k)
			}
			if !v.Allowed {
				secs := int(math.Ceil(v.RetryAfter.Seconds()))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
