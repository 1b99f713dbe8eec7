package services

import (
	"context"
	"strings"
	"time"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/notify"
	"github.com/haxxxs/edu-back/internal/storage"
)

type NoteInput struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Color       string    `json:"color" validate:"max=20"`
	IsImportant bool      `json:"is_important"`
}

type NoteUpdate struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Color       *string    `json:"color" validate:"omitempty,max=20"`
	IsImportant *bool      `json:"is_important"`
}

type NoteQuery struct {
	From        time.Time
	To          time.Time
	IsImportant *bool
}

type CalendarService struct {
	notes    *storage.NoteRepo
	users    *storage.UserRepo
	notifier Notifier
}

func NewCalendarService(notes *storage.NoteRepo, users *storage.UserRepo, n Notifier) *CalendarService {
	return &CalendarService{notes: notes, users: users, notifier: n}
}

func (s *CalendarService) Create(ctx context.Context, actor Actor, in NoteInput) (models.CalendarNote, error) {
	n := models.CalendarNote{
		UserID:      actor.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Date:        in.Date,
		Color:       in.Color,
		IsImportant: in.IsImportant,
	}
	if err := s.notes.Create(ctx, &n); err != nil {
		return models.CalendarNote{}, err
	}
	s.notify(ctx, n, notify.NoteCreated)
	return n, nil
}

// List: диапазон дат обязателен.
func (s *CalendarService) List(ctx context.Context, actor Actor, q NoteQuery) ([]models.CalendarNote, error) {
	fields := map[string]string{}
	if q.From.IsZero() {
		fields["start_date"] = "required"
	}
	if q.To.IsZero() {
		fields["end_date"] = "required"
	}
	if len(fields) == 0 && q.To.Before(q.From) {
		fields["end_date"] = "must not be before start_date"
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields("Invalid date range", fields)
	}
	return s.notes.List(ctx, storage.NoteFilter{
		UserID:      actor.UserID,
		From:        q.From,
		To:          q.To,
		IsImportant: q.IsImportant,
	})
}

func (s *CalendarService) Get(ctx context.Context, actor Actor, id uint) (models.CalendarNote, error) {
	n, err := s.notes.Get(ctx, id)
	if err != nil {
		return models.CalendarNote{}, err
	}
	if !actor.owns(n.UserID) {
		return models.CalendarNote{}, apperr.Forbiddenf("Not allowed to access this calendar note")
	}
	return n, nil
}

func (s *CalendarService) Update(ctx context.Context, actor Actor, id uint, in NoteUpdate) (models.CalendarNote, error) {
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return models.CalendarNote{}, err
	}
	if in.Title != nil {
		n.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		n.Description = *in.Description
	}
	if in.Date != nil && !in.Date.Equal(n.Date) {
		n.Date = *in.Date
		// новая дата - новое напоминание
		n.RemindedAt = nil
	}
	if in.Color != nil {
		n.Color = *in.Color
	}
	if in.IsImportant != nil {
		n.IsImportant = *in.IsImportant
	}
	if err := s.notes.Save(ctx, &n); err != nil {
		return models.CalendarNote{}, err
	}
	s.notify(ctx, n, notify.NoteUpdated)
	return n, nil
}

func (s *CalendarService) Delete(ctx context.Context, actor Actor, id uint) error {
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, n, notify.NoteDeleted)
	return nil
}

// notify шлёт уведомление владельцу заметки, если у него есть Telegram.
func (s *CalendarService) notify(ctx context.Context, n models.CalendarNote, ev notify.NoteEvent) {
	owner, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return
	}
	recipient := owner.TelegramRecipient()
	if recipient == "" {
		return
	}
	s.notifier.NotifyAsync(recipient, notify.CalendarNote(ev, n.Title, n.Date, n.Description))
}
