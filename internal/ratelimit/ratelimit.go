// Package ratelimit реализует ограничение запросов фиксированным окном.
package ratelimit

import (
	"context"
	"time"
)

// Decision - результат проверки одного запроса.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Key собирает ключ лимита из адреса клиента и пути запроса.
func Key(client, path string) string {
	return client + ":" + path
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}
