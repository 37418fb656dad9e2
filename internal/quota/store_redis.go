package quota

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a store shared by every replica pointing at the same Redis.
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Window, error) {
	k := redisKeyPrefix + key
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Window{}, err
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = window
	}
	return Window{Hits: int(incr.Val()), ResetsAt: now.Add(remaining)}, nil
}
