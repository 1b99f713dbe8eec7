package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newMemory(limit int, win time.Duration, maxKeys int) (*MemoryStore, *clock) {
	c := &clock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(limit, win, maxKeys)
	s.now = c.now
	return s, c
}

func TestMemoryStore_FixedWindow(t *testing.T) {
	ctx := context.Background()
	s, c := newMemory(2, time.Minute, 100)
	key := Key("10.0.0.1", "/api/courses")

	d, err := s.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, _ = s.Allow(ctx, key)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	c.advance(20 * time.Second)
	d, _ = s.Allow(ctx, key)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.RetryAfter)

	// другой ключ считается отдельно
	d, _ = s.Allow(ctx, Key("10.0.0.2", "/api/courses"))
	assert.True(t, d.Allowed)

	c.advance(40 * time.Second)
	d, _ = s.Allow(ctx, key)
	assert.True(t, d.Allowed, "new window starts after the old one expires")
	assert.Equal(t, 1, d.Remaining)
}

func TestMemoryStore_Bounded(t *testing.T) {
	ctx := context.Background()
	s, c := newMemory(5, time.Minute, 3)

	for i := 0; i < 3; i++ {
		_, _ = s.Allow(ctx, fmt.Sprintf("k%d", i))
		c.advance(time.Second)
	}
	require.Equal(t, 3, s.Len())

	// при переполнении уходит самое старое окно
	_, _ = s.Allow(ctx, "k3")
	assert.Equal(t, 3, s.Len())
	s.mu.Lock()
	_, hasOldest := s.windows["k0"]
	_, hasNewest := s.windows["k3"]
	s.mu.Unlock()
	assert.False(t, hasOldest)
	assert.True(t, hasNewest)

	// истёкшие окна чистятся первыми
	c.advance(2 * time.Minute)
	_, _ = s.Allow(ctx, "k4")
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(50, time.Minute, 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := s.Allow(ctx, "shared")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStore(rdb, 2, time.Minute)
	key := Key("10.0.0.1", "/api/auth/login")

	d, err := s.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = s.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = s.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	mr.FastForward(time.Minute + time.Second)
	d, err = s.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	_, err := NewRedisStore(rdb, 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}
