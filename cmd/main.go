package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/haxxxs/edu-back/internal/auth"
	"github.com/haxxxs/edu-back/internal/cache"
	"github.com/haxxxs/edu-back/internal/config"
	"github.com/haxxxs/edu-back/internal/ctxutil"
	"github.com/haxxxs/edu-back/internal/database"
	"github.com/haxxxs/edu-back/internal/handlers"
	"github.com/haxxxs/edu-back/internal/jobs"
	"github.com/haxxxs/edu-back/internal/logging"
	"github.com/haxxxs/edu-back/internal/notify"
	"github.com/haxxxs/edu-back/internal/observability"
	"github.com/haxxxs/edu-back/internal/ratelimit"
	"github.com/haxxxs/edu-back/internal/server"
	"github.com/haxxxs/edu-back/internal/services"
)

func main() {
	// ---------------------------
	// 0. Конфигурация и логгер
	// ---------------------------
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Ошибка конфигурации:", err)
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatal("Ошибка логгера:", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------------------
	// 1. База данных и миграции
	// ---------------------------
	if cfg.DBTimeout > 0 {
		ctxutil.DefaultDBTimeout = cfg.DBTimeout
	}
	db, err := database.Connect(ctx, cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.DBMigrate && cfg.DBDriver == "postgres" {
		if err := database.MigrateSQL(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal("sql migrations failed", zap.Error(err))
		}
	} else if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("automigrate failed", zap.Error(err))
		}
	}

	// ---------------------------
	// 2. Redis: кэш и лимиты (если задан REDIS_URL)
	// ---------------------------
	var (
		store   cache.Cache
		limiter ratelimit.Limiter
	)
	if cfg.RedisURL != "" {
		rdb, err := newRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis connect failed", zap.Error(err))
		}
		defer rdb.Close()
		store = cache.NewRedis(rdb)
		limiter = ratelimit.NewRedisStore(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow)
		logger.Info("redis enabled")
	} else {
		store = cache.NewMemory(cfg.CacheMaxEntries)
		limiter = ratelimit.NewMemoryStore(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitMaxKeys)
	}

	// ---------------------------
	// 3. Telegram-уведомления
	// ---------------------------
	var sender notify.Sender
	if cfg.TelegramToken != "" {
		bot, err := notify.NewBot(cfg.TelegramToken, 10*time.Second)
		if err != nil {
			logger.Warn("telegram bot init failed, notifications disabled", zap.Error(err))
		} else {
			sender = bot
		}
	}
	dispatcher := notify.NewDispatcher(sender, logger)
	defer dispatcher.Close()

	// ---------------------------
	// 4. Сервисы
	// ---------------------------
	svc := services.New(services.Deps{
		DB:           db,
		Tokens:       auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Cache:        store,
		CacheTTL:     cfg.CacheTTL,
		Notifier:     dispatcher,
		Log:          logger,
		ReminderLead: cfg.ReminderLead,
	})

	// ---------------------------
	// 5. Google OAuth и сессии
	// ---------------------------
	var oauthConfig *oauth2.Config
	if cfg.GoogleEnabled() {
		oauthConfig = auth.InitGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		logger.Info("google oauth disabled")
	}
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionKey))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   !cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	}

	// ---------------------------
	// 6. Фоновые задачи
	// ---------------------------
	runner := jobs.New(ctx, logger)
	if cfg.ReminderInterval > 0 {
		runner.Every(cfg.ReminderInterval, "calendar_reminders", svc.Reminders.Run)
	}

	// ---------------------------
	// 7. Запуск сервера
	// ---------------------------
	h := handlers.NewHandler(db, svc, sessionStore, oauthConfig, logger)
	srv := server.New(cfg.HTTPAddr, server.NewRouter(h, limiter, cfg.CORSOrigins), logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}

	stop()
	runner.Wait()
	logger.Info("bye")
}

func newRedis(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
