package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyUserID key = iota
	keyIsAdmin
	keyRequestID
)

// WithUser кладёт в контекст аутентифицированного пользователя.
func WithUser(ctx context.Context, userID uint, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, keyUserID, userID)
	return context.WithValue(ctx, keyIsAdmin, isAdmin)
}

func UserID(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(keyUserID).(uint)
	return id, ok && id != 0
}

func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(keyIsAdmin).(bool)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(keyRequestID).(string)
	return s
}

var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout: стандартный таймаут для БД, но не больше остатка родителя.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
