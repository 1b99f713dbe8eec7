package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/models"
)

type NoteRepo struct {
	db *gorm.DB
}

func NewNoteRepo(db *gorm.DB) *NoteRepo { return &NoteRepo{db: db} }

// NoteFilter - диапазон дат обязателен, важность - по желанию.
type NoteFilter struct {
	UserID      uint
	From        time.Time
	To          time.Time
	IsImportant *bool
}

// DueNote - заметка с получателем напоминания.
type DueNote struct {
	models.CalendarNote
	TelegramID string
}

func (r *NoteRepo) Create(ctx context.Context, n *models.CalendarNote) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NoteRepo) Get(ctx context.Context, id uint) (models.CalendarNote, error) {
	var n models.CalendarNote
	err := r.db.WithContext(ctx).First(&n, id).Error
	return n, notFound(err, "Calendar note not found")
}

func (r *NoteRepo) List(ctx context.Context, f NoteFilter) ([]models.CalendarNote, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", f.UserID, f.From, f.To)
	if f.IsImportant != nil {
		q = q.Where("is_important = ?", *f.IsImportant)
	}
	notes := []models.CalendarNote{}
	err := q.Order("date ASC, id ASC").Find(&notes).Error
	return notes, err
}

// Save сохраняет все поля; смена даты снова разрешает напоминание.
func (r *NoteRepo) Save(ctx context.Context, n *models.CalendarNote) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *NoteRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CalendarNote{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Calendar note not found")
	}
	return nil
}

// DueForReminder: заметки в окне (from, to], по которым ещё не напоминали
// и у владельца указан Telegram.
func (r *NoteRepo) DueForReminder(ctx context.Context, from, to time.Time) ([]DueNote, error) {
	var out []DueNote
	err := r.db.WithContext(ctx).Table("calendar_notes").
		Select("calendar_notes.*, users.telegram_id AS telegram_id").
		Joins("JOIN users ON users.id = calendar_notes.user_id").
		Where("calendar_notes.date > ? AND calendar_notes.date <= ?", from, to).
		Where("calendar_notes.reminded_at IS NULL").
		Where("users.telegram_id IS NOT NULL AND users.is_active = ?", true).
		Order("calendar_notes.date ASC").
		Scan(&out).Error
	return out, err
}

func (r *NoteRepo) MarkReminded(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.CalendarNote{}).
		Where("id = ?", id).Update("reminded_at", at).Error
}
