package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/database/migrations"
	"github.com/haxxxs/edu-back/internal/models"
)

// Models - все таблицы приложения в порядке зависимостей.
func Models() []any {
	return []any{
		&models.User{},
		&models.Course{},
		&models.Module{},
		&models.Lesson{},
		&models.ContentBlock{},
		&models.UserCourse{},
		&models.Certificate{},
		&models.UserProgress{},
		&models.CompletedLesson{},
		&models.CompletedPractice{},
		&models.UserPracticeAttempt{},
		&models.CalendarNote{},
		&models.Event{},
		&models.Task{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// MigrateSQL накатывает SQL-миграции goose (только postgres).
func MigrateSQL(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer sqlDB.Close()
	return Up(ctx, sqlDB)
}

// Up применяет встроенные миграции к открытому соединению.
func Up(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
