package models

import "time"

type User struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Email          string  `gorm:"uniqueIndex:idx_users_email;size:255;not null" json:"email"`
	HashedPassword string  `gorm:"size:255" json:"-"`
	Name           string  `gorm:"size:255" json:"name"`
	Role           Role    `gorm:"size:20;not null" json:"role"`
	AvatarURL      string  `gorm:"size:512" json:"avatar_url"`
	About          string  `gorm:"type:text" json:"about"`
	Location       string  `gorm:"size:255" json:"location"`
	IsActive       bool    `json:"is_active"`
	IsAdmin        bool    `json:"is_admin"`
	TelegramID     *string `gorm:"uniqueIndex:idx_users_telegram_id;size:64" json:"telegram_id"`
	GoogleID       *string `gorm:"uniqueIndex:idx_users_google_id;size:64" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TelegramRecipient возвращает адресата уведомлений или пустую строку.
func (u User) TelegramRecipient() string {
	if u.TelegramID == nil {
		return ""
	}
	return *u.TelegramID
}
