package middleware

import (
	"net/http"
	"strings"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/ctxutil"
	"github.com/haxxxs/edu-back/internal/handlers"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth проверяет bearer-токен и кладёт пользователя в контекст.
// Флаг админа берётся из БД.
func RequireAuth(h *handlers.Handler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Токен
			raw := bearerToken(r)
			if raw == "" {
				h.Fail(w, r, apperr.Unauthenticatedf("Not authenticated"))
				return
			}

			// 2. Пользователь
			u, err := h.Svc.Auth.Authenticate(r.Context(), raw)
			if err != nil {
				h.Fail(w, r, err)
				return
			}

			// 3. Дальше с пользователем в контексте
			ctx := ctxutil.WithUser(r.Context(), u.ID, u.IsAdmin)
			setUserID(r, u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin ставится после RequireAuth.
func RequireAdmin(h *handlers.Handler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ctxutil.IsAdmin(r.Context()) {
				h.Fail(w, r, apperr.Forbiddenf("Недостаточно прав для выполнения этой операции"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
