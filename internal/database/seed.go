package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/models"
)

// EnsureAdmin создаёт администратора или повышает существующего пользователя.
// Пароль меняется только если передан hashedPassword.
func EnsureAdmin(ctx context.Context, db *gorm.DB, email, name, hashedPassword string, telegramID *string) (models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"is_admin":  true,
			"is_active": true,
			"role":      models.RoleAdmin,
		}
		if hashedPassword != "" {
			updates["hashed_password"] = hashedPassword
		}
		if telegramID != nil {
			updates["telegram_id"] = *telegramID
		}
		if err := db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return models.User{}, false, err
		}
		user.IsAdmin, user.IsActive, user.Role = true, true, models.RoleAdmin
		return user, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:          email,
			Name:           name,
			HashedPassword: hashedPassword,
			Role:           models.RoleAdmin,
			IsActive:       true,
			IsAdmin:        true,
			TelegramID:     telegramID,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return models.User{}, false, err
		}
		return user, true, nil

	default:
		return models.User{}, false, err
	}
}
