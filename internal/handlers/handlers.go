package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/ctxutil"
	"github.com/haxxxs/edu-back/internal/metrics"
	"github.com/haxxxs/edu-back/internal/services"
)

type Handler struct {
	DB     *gorm.DB
	Svc    *services.Services
	Store  *sessions.CookieStore
	Config *oauth2.Config // nil: вход через Google выключен
	Log    *zap.Logger
	V      *Validator
}

func NewHandler(db *gorm.DB, svc *services.Services, store *sessions.CookieStore, config *oauth2.Config, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		DB:     db,
		Svc:    svc,
		Store:  store,
		Config: config,
		Log:    log,
		V:      NewValidator(),
	}
}

// Actor - пользователь текущего запроса, его кладёт middleware.RequireAuth.
func Actor(r *http.Request) services.Actor {
	id, _ := ctxutil.UserID(r.Context())
	return services.Actor{UserID: id, IsAdmin: ctxutil.IsAdmin(r.Context())}
}

// Health - GET /healthz, пингует БД.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	metrics.ObserveDBPing(time.Since(start))
	if err != nil {
		h.Log.Warn("health check failed", zap.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
