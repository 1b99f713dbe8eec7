package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/cache"
	"github.com/haxxxs/edu-back/internal/metrics"
)

const (
	userCoursesPrefix = "user_courses:"
	genStripes        = 256
)

// enrollmentCache - кэш списков курсов пользователя.
// Ключ: user_courses:{user}:{limit}:{offset}:{status}.
//
// Поколения (общее и по полосам пользователей) растут при каждой
// инвалидации. Страница, загруженная до инвалидации, в кэш не попадает.
type enrollmentCache struct {
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger

	global atomic.Uint64
	users  [genStripes]atomic.Uint64
}

type cacheGen struct {
	global, user uint64
}

func (c *enrollmentCache) generation(userID uint) cacheGen {
	return cacheGen{global: c.global.Load(), user: c.users[userID%genStripes].Load()}
}

func userCoursesKey(userID uint, limit, offset int, status string) string {
	return fmt.Sprintf("%s%d:%d:%d:%s", userCoursesPrefix, userID, limit, offset, status)
}

func userPrefix(userID uint) string {
	return fmt.Sprintf("%s%d:", userCoursesPrefix, userID)
}

// get: ошибка кэша считается промахом, запрос уходит в БД.
func (c *enrollmentCache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheMiss()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("cache entry corrupted", zap.String("key", key), zap.Error(err))
		metrics.CacheMiss()
		return false
	}
	metrics.CacheHit()
	return true
}

func (c *enrollmentCache) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// setFresh кладёт страницу, только если с момента gen не было инвалидации.
// Повторная проверка после Set закрывает гонку с DeletePrefix.
func (c *enrollmentCache) setFresh(ctx context.Context, key string, userID uint, gen cacheGen, v any) {
	if c.generation(userID) != gen {
		return
	}
	c.set(ctx, key, v)
	if c.generation(userID) != gen {
		if err := c.cache.DeletePrefix(ctx, key); err != nil {
			c.log.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// invalidateUser сбрасывает все страницы пользователя.
func (c *enrollmentCache) invalidateUser(ctx context.Context, userID uint) {
	c.users[userID%genStripes].Add(1)
	if err := c.cache.DeletePrefix(ctx, userPrefix(userID)); err != nil {
		c.log.Warn("cache invalidate failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// invalidateAll - после удаления или переименования курса.
func (c *enrollmentCache) invalidateAll(ctx context.Context) {
	c.global.Add(1)
	if err := c.cache.DeletePrefix(ctx, userCoursesPrefix); err != nil {
		c.log.Warn("cache invalidate failed", zap.Error(err))
	}
}
