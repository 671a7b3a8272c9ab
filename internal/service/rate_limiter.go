package service

import (
	"context"
	"fmt"
	"time"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/pkg/database"
	"github.com/precisesoft/ConnectKit-sub000/pkg/observability"
	"go.uber.org/zap"
)

// FailMode controls what the limiter does when Redis is unavailable
type FailMode string

const (
	// FailOpen allows requests when the counter store is unreachable
	FailOpen FailMode = "open"
	// FailClosed rejects requests when the counter store is unreachable
	FailClosed FailMode = "closed"
)

// RateLimiter throttles requests with a per-key Redis counter. The
// increment and the TTL assignment are issued in one pipeline so
// concurrent requests for the same key cannot leave a counter without
// expiry.
type RateLimiter struct {
	redis    *database.Redis
	failMode FailMode
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis, failMode FailMode, metrics *observability.Metrics, logger *zap.Logger) *RateLimiter {
	if failMode != FailClosed {
		failMode = FailOpen
	}
	return &RateLimiter{
		redis:    redis,
		failMode: failMode,
		metrics:  metrics,
		logger:   logger,
	}
}

func rateLimitKey(action, identity string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, identity)
}

// Allow counts a request against (action, identity) and returns a
// RateLimited error carrying a retry-after hint once the ceiling is
// exceeded within the window.
func (r *RateLimiter) Allow(ctx context.Context, action, identity string, limit int, window time.Duration) error {
	key := rateLimitKey(action, identity)

	pipe := r.redis.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		if r.failMode == FailClosed {
			r.logger.Error("rate limit store unavailable, failing closed", zap.Error(err))
			return domain.NewRateLimited(window)
		}
		r.logger.Warn("rate limit store unavailable, failing open", zap.Error(err))
		return nil
	}

	if incr.Val() <= int64(limit) {
		return nil
	}

	retryAfter := window
	if ttl, err := r.redis.Client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		retryAfter = ttl
	}

	r.metrics.RecordRateLimitRejection(ctx, action)

	return domain.NewRateLimited(retryAfter)
}

// Remaining returns how many requests are left in the current window
func (r *RateLimiter) Remaining(ctx context.Context, action, identity string, limit int) (int, error) {
	count, err := r.redis.Client.Get(ctx, rateLimitKey(action, identity)).Int()
	if err != nil {
		// missing key or store error both mean a fresh window
		return limit, nil
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
