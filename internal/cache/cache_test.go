package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(10)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "user_courses:1:10:0:all", []byte(`{"total_count":1}`), time.Minute))
	got, err := m.Get(ctx, "user_courses:1:10:0:all")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_count":1}`, string(got))

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "user_courses:1:10:0:all")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Bounded(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(2)
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "a", []byte("1"), time.Hour)
	now = now.Add(time.Second)
	_ = m.Set(ctx, "b", []byte("2"), time.Hour)
	now = now.Add(time.Second)
	_ = m.Set(ctx, "c", []byte("3"), time.Hour)

	assert.Equal(t, 2, m.Len())
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)

	// перезапись существующего ключа ничего не вытесняет
	_ = m.Set(ctx, "c", []byte("4"), time.Hour)
	_, err = m.Get(ctx, "b")
	assert.NoError(t, err)
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	_ = m.Set(ctx, "user_courses:1:10:0:all", []byte("x"), time.Hour)
	_ = m.Set(ctx, "user_courses:1:5:5:completed", []byte("x"), time.Hour)
	_ = m.Set(ctx, "user_courses:12:10:0:all", []byte("x"), time.Hour)

	require.NoError(t, m.DeletePrefix(ctx, "user_courses:1:"))
	assert.Equal(t, 1, m.Len())
	_, err := m.Get(ctx, "user_courses:12:10:0:all")
	assert.NoError(t, err)
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewRedis(rdb)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	for i := 0; i < 250; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("user_courses:7:%d:0:all", i), []byte("v"), time.Minute))
	}
	require.NoError(t, c.Set(ctx, "user_courses:70:10:0:all", []byte("keep"), time.Minute))

	got, err := c.Get(ctx, "user_courses:7:3:0:all")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, c.DeletePrefix(ctx, "user_courses:7:"))
	assert.Len(t, mr.Keys(), 1)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "user_courses:70:10:0:all")
	assert.ErrorIs(t, err, ErrMiss)
}
