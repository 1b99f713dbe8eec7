package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisPrefix = "ratelimit:"

// RedisStore делит окна между несколькими инстансами сервиса.
type RedisStore struct {
	rdb    goredis.UniversalClient
	limit  int
	window time.Duration
}

func NewRedisStore(rdb goredis.UniversalClient, limit int, win time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, limit: limit, window: win}
}

// Allow: INCR, на первом запросе окна PEXPIRE. Отклонённые запросы
// тоже увеличивают счётчик, но окно от этого не продлевается.
func (s *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	k := redisPrefix + key

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis: %w", err)
	}

	count := int(incr.Val())
	ttl := pttl.Val()
	if count == 1 || ttl < 0 {
		if err := s.rdb.PExpire(ctx, k, s.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit: redis expire: %w", err)
		}
		ttl = s.window
	}

	if count > s.limit {
		return Decision{Allowed: false, Limit: s.limit, Remaining: 0, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Limit: s.limit, Remaining: remaining(s.limit, count)}, nil
}
