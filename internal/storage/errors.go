package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation распознаёт нарушение уникальности в postgres, mysql и sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// ViolatedField угадывает поле по имени ограничения или тексту ошибки.
func ViolatedField(err error) string {
	target := err.Error()
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		target = pgErr.ConstraintName
	}
	target = strings.ToLower(target)
	switch {
	case strings.Contains(target, "telegram"):
		return "telegram_id"
	case strings.Contains(target, "google"):
		return "google_id"
	case strings.Contains(target, "email"):
		return "email"
	case strings.Contains(target, "title"):
		return "title"
	}
	return ""
}

// notFound переводит ErrRecordNotFound в apperr.NotFound, остальное оборачивает.
func notFound(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf(format, args...)
	}
	return err
}
