// Команда createadmin создаёт администратора или выдаёт права существующему пользователю.
//
//	go run ./cmd/createadmin -email admin@example.com -password secret123
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/auth"
	"github.com/haxxxs/edu-back/internal/config"
	"github.com/haxxxs/edu-back/internal/database"
	"github.com/haxxxs/edu-back/internal/logging"
)

func main() {
	email := flag.String("email", "", "email администратора")
	password := flag.String("password", "", "пароль (не меньше 8 символов); пусто - не менять")
	name := flag.String("name", "Administrator", "имя")
	telegram := flag.String("telegram", "", "Telegram ID для уведомлений")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		log.Fatal("нужен -email")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Ошибка конфигурации:", err)
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatal("Ошибка логгера:", err)
	}
	defer lg.Closer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DBDriver, cfg.DatabaseURL, lg.Base)
	if err != nil {
		lg.Base.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		lg.Base.Fatal("automigrate failed", zap.Error(err))
	}

	var hash string
	if *password != "" {
		if len(*password) < 8 {
			lg.Base.Fatal("password must be at least 8 characters long")
		}
		if hash, err = auth.HashPassword(*password); err != nil {
			lg.Base.Fatal("hash password", zap.Error(err))
		}
	}

	var tg *string
	if id := strings.TrimSpace(*telegram); id != "" {
		if err := auth.ValidateTelegramID(id); err != nil {
			lg.Base.Fatal("invalid telegram id", zap.Error(err))
		}
		tg = &id
	}

	user, created, err := database.EnsureAdmin(ctx, db, *email, *name, hash, tg)
	if err != nil {
		lg.Base.Fatal("ensure admin failed", zap.Error(err))
	}
	if created && hash == "" {
		lg.Base.Warn("admin created without password, only Google login will work", zap.String("email", user.Email))
	}
	lg.Base.Info("admin ready",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Bool("created", created),
	)
}
