package services

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/ctxutil"
	"github.com/haxxxs/edu-back/internal/notify"
	"github.com/haxxxs/edu-back/internal/storage"
)

// ReminderService напоминает в Telegram о заметках, до которых осталось меньше lead.
type ReminderService struct {
	notes    *storage.NoteRepo
	notifier Notifier
	lead     time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewReminderService(notes *storage.NoteRepo, n Notifier, lead time.Duration, log *zap.Logger) *ReminderService {
	return &ReminderService{notes: notes, notifier: n, lead: lead, log: log.Named("reminders"), now: time.Now}
}

// Run - один проход: каждая заметка получает не больше одного напоминания.
func (s *ReminderService) Run(ctx context.Context) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	now := s.now()
	due, err := s.notes.DueForReminder(ctx, now, now.Add(s.lead))
	if err != nil {
		return err
	}
	for _, n := range due {
		minutes := int(math.Ceil(n.Date.Sub(now).Minutes()))
		s.notifier.NotifyAsync(n.TelegramID, notify.NoteReminderText(n.Title, n.Date, minutes))
		if err := s.notes.MarkReminded(ctx, n.ID, now); err != nil {
			return err
		}
	}
	if len(due) > 0 {
		s.log.Info("reminders sent", zap.Int("count", len(due)))
	}
	return nil
}
