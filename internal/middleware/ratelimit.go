package middleware

import (
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/handlers"
	"github.com/haxxxs/edu-back/internal/metrics"
	"github.com/haxxxs/edu-back/internal/ratelimit"
)

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit ограничивает запросы по ключу (адрес клиента, путь запроса).
// Шаблон маршрута идёт только в метки метрик.
// Если хранилище лимитов недоступно, запрос пропускается.
func RateLimit(h *handlers.Handler, limiter ratelimit.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			route := Route(r)
			d, err := limiter.Allow(r.Context(), ratelimit.Key(clientAddr(r), r.URL.Path))
			if err != nil {
				h.Log.Warn("rate limiter unavailable", zap.String("route", route), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				metrics.RateLimitRejections.WithLabelValues(route).Inc()
				h.Fail(w, r, apperr.TooMany(d.RetryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
