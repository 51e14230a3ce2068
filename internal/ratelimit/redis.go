package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RedisLimiter keeps one sorted set of request timestamps per key so the
// budget is shared by every replica.
type RedisLimiter struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisLimiter creates a Redis backed sliding window limiter
func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

// Allow implements Limiter. The hit is recorded and counted in one MULTI so
// concurrent callers cannot both see a free slot; a rejected hit is removed again.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, duration time.Duration) (Decision, error) {
	now := l.now()
	cutoff := now.Add(-duration).UnixNano()
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	var (
		count  *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixNano()), Member: member})
		count = pipe.ZCard(ctx, key)
		oldest = pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.PExpire(ctx, key, duration)
		return nil
	})
	if err != nil {
		return Decision{}, errors.Wrap(err, "failed to record rate limit hit")
	}

	var oldestAt time.Time
	if zs := oldest.Val(); len(zs) > 0 {
		oldestAt = time.Unix(0, int64(zs[0].Score))
	}

	d := decide(now, limit, duration, int(count.Val()), oldestAt)
	if !d.Allowed {
		if err := l.client.ZRem(ctx, key, member).Err(); err != nil {
			return Decision{}, errors.Wrap(err, "failed to drop rejected rate limit hit")
		}
	}
	return d, nil
}

// decide turns the window size after recording a hit into a Decision.
// hits includes the hit being decided on.
func decide(now time.Time, limit int, duration time.Duration, hits int, oldest time.Time) Decision {
	resetAt := now.Add(duration)
	if !oldest.IsZero() {
		resetAt = oldest.Add(duration)
	}

	if hits > limit {
		return Decision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}
	}
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - hits,
		ResetAt:   resetAt,
	}
}
