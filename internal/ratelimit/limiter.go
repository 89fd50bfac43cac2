package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackfest/ideavote/pkg/logger"
)

// Limiter is a redis-backed fixed-window counter. Keys are hashed before
// storage so raw emails never land in redis.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, window: window}
}

// Allow reports whether the key is under its request budget. On redis errors
// it fails open: throttling is protection, not correctness.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	sum := sha256.Sum256([]byte(key))
	rk := fmt.Sprintf("ratelimit:%x", sum)

	count, err := l.rdb.Incr(ctx, rk).Result()
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed, allowing request", "error", err)
		return true, nil
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, rk, l.window).Err(); err != nil {
			logger.WarnContext(ctx, "Failed to set rate limit window", "error", err)
		}
	}

	return count <= int64(l.limit), nil
}
