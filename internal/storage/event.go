package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *EventRepo { return &EventRepo{db: db} }

type EventFilter struct {
	Type            models.EventType
	IsOnline        *bool
	MinParticipants *int
	MaxParticipants *int
}

func (r *EventRepo) Create(ctx context.Context, e *models.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepo) Get(ctx context.Context, id uint) (models.Event, error) {
	var e models.Event
	err := r.db.WithContext(ctx).First(&e, id).Error
	return e, notFound(err, "Event not found")
}

func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	q := r.db.WithContext(ctx)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.IsOnline != nil {
		q = q.Where("is_online = ?", *f.IsOnline)
	}
	if f.MinParticipants != nil {
		q = q.Where("current_participants >= ?", *f.MinParticipants)
	}
	if f.MaxParticipants != nil {
		q = q.Where("max_participants <= ?", *f.MaxParticipants)
	}
	events := []models.Event{}
	err := q.Order("start_date ASC, id ASC").Find(&events).Error
	return events, err
}

// Update пишет только переданные поля: current_participants меняет лишь Register.
// Новый max_participants не может стать меньше уже занятых мест.
func (r *EventRepo) Update(ctx context.Context, id uint, updates map[string]any) (models.Event, error) {
	q := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id)
	if limit, ok := updates["max_participants"].(int); ok {
		q = q.Where("current_participants <= ?", limit)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return models.Event{}, res.Error
	}
	e, err := r.Get(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	if res.RowsAffected == 0 {
		return e, apperr.ValidationFields("Invalid event data",
			map[string]string{"max_participants": "must not be below current participants"})
	}
	return e, nil
}

func (r *EventRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("Event not found")
	}
	return nil
}

// Register занимает место условным UPDATE, без гонки чтение-запись.
func (r *EventRepo) Register(ctx context.Context, id uint) (models.Event, error) {
	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND (max_participants IS NULL OR current_participants < max_participants)", id).
		UpdateColumn("current_participants", gorm.Expr("current_participants + ?", 1))
	if res.Error != nil {
		return models.Event{}, res.Error
	}
	e, err := r.Get(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	if res.RowsAffected == 0 {
		return e, apperr.Conflictf("Event is already full")
	}
	return e, nil
}
