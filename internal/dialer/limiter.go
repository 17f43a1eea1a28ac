package dialer

import (
	"context"
	"time"

	"autodialer-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter caps in-flight provider calls process-wide (and across
// replicas sharing the Redis instance). The slot TTL covers a crashed
// process that never released.
type RedisLimiter struct {
	rdb   *redis.Client
	key   string
	limit int
	ttl   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, key string, limit int, ttl time.Duration) *RedisLimiter {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisLimiter{rdb: rdb, key: key, limit: limit, ttl: ttl}
}

func (l *RedisLimiter) Acquire(ctx context.Context) (func(), bool, error) {
	ok, err := utils.AcquireConcurrencyCap(ctx, l.rdb, l.key, l.limit, l.ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = utils.ReleaseConcurrencyCap(releaseCtx, l.rdb, l.key)
	}
	return release, true, nil
}
