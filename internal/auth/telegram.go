package auth

import (
	"regexp"
	"strings"

	"github.com/haxxxs/edu-back/internal/apperr"
)

var (
	telegramUsername = regexp.MustCompile(`^@[a-zA-Z0-9_]{5,32}$`)
	telegramNumeric  = regexp.MustCompile(`^-?[0-9]+$`)
)

// ValidateTelegramID принимает @username (5-32 символа) или положительный числовой ID.
func ValidateTelegramID(id string) error {
	if strings.HasPrefix(id, "@") {
		if !telegramUsername.MatchString(id) {
			return apperr.ValidationFields(
				"Invalid Telegram username format. Must be 5-32 characters long and contain only letters, numbers, and underscores.",
				map[string]string{"telegram_id": "format"},
			)
		}
		return nil
	}
	if telegramNumeric.MatchString(id) {
		if strings.HasPrefix(id, "-") || strings.TrimLeft(id, "0") == "" {
			return apperr.ValidationFields("Telegram ID must be a positive number.",
				map[string]string{"telegram_id": "positive"})
		}
		return nil
	}
	return apperr.ValidationFields("Telegram ID must be either a username starting with @ or a numeric ID.",
		map[string]string{"telegram_id": "format"})
}
