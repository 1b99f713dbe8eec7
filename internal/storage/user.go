package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// Create вставляет пользователя; дубли email и telegram_id дают Conflict.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return userConflict(err)
	}
	return nil
}

func userConflict(err error) error {
	if !IsUniqueViolation(err) {
		return err
	}
	switch ViolatedField(err) {
	case "telegram_id":
		return &apperr.Error{Kind: apperr.Conflict, Message: "Telegram ID already registered", Err: err}
	case "google_id":
		return &apperr.Error{Kind: apperr.Conflict, Message: "Google account already linked", Err: err}
	default:
		return &apperr.Error{Kind: apperr.Conflict, Message: "Email already registered", Err: err}
	}
}

func (r *UserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	return u, notFound(err, "User not found")
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	return u, notFound(err, "User not found")
}

// EmailTaken и TelegramTaken нужны, чтобы отказать до вставки.
func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	return n > 0, err
}

func (r *UserRepo) TelegramTaken(ctx context.Context, telegramID string, exceptUserID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ? AND id <> ?", telegramID, exceptUserID).
		Count(&n).Error
	return n > 0, err
}

// Update применяет частичное обновление.
func (r *UserRepo) Update(ctx context.Context, id uint, updates map[string]any) (models.User, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.User{}, userConflict(res.Error)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.User{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// SaveGoogleUser ищет пользователя по Google ID, затем по email;
// если не нашёл - создаёт студента.
func (r *UserRepo) SaveGoogleUser(ctx context.Context, googleID, email, name, picture string) (models.User, error) {
	db := r.db.WithContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	// 1. Уже входил через Google
	var existing models.User
	err := db.Where("google_id = ?", googleID).First(&existing).Error
	if err == nil {
		updates := map[string]any{"name": name}
		if picture != "" {
			updates["avatar_url"] = picture
		}
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return models.User{}, err
		}
		return r.GetByID(ctx, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	// 2. Зарегистрирован по email - привязываем Google
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if err := db.Model(&existing).Update("google_id", googleID).Error; err != nil {
			return models.User{}, userConflict(err)
		}
		return r.GetByID(ctx, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	// 3. Новый пользователь
	gid := googleID
	u := models.User{
		Email:     email,
		Name:      name,
		AvatarURL: picture,
		Role:      models.RoleStudent,
		IsActive:  true,
		GoogleID:  &gid,
	}
	if err := r.Create(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}
