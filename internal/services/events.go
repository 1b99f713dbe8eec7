package services

import (
	"context"
	"strings"
	"time"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
)

type EventInput struct {
	Title           string           `json:"title" validate:"required,max=200"`
	Description     string           `json:"description"`
	StartDate       time.Time        `json:"start_date" validate:"required"`
	EndDate         time.Time        `json:"end_date" validate:"required"`
	Location        string           `json:"location" validate:"max=300"`
	MaxParticipants *int             `json:"max_participants" validate:"omitempty,min=0"`
	Type            models.EventType `json:"type" validate:"required"`
	Price           *float64         `json:"price" validate:"omitempty,min=0"`
	ImageURL        string           `json:"image_url" validate:"max=500"`
	IsOnline        bool             `json:"is_online"`
}

type EventUpdate struct {
	Title           *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string           `json:"description"`
	StartDate       *time.Time        `json:"start_date"`
	EndDate         *time.Time        `json:"end_date"`
	Location        *string           `json:"location" validate:"omitempty,max=300"`
	MaxParticipants *int              `json:"max_participants" validate:"omitempty,min=0"`
	Type            *models.EventType `json:"type"`
	Price           *float64          `json:"price" validate:"omitempty,min=0"`
	ImageURL        *string           `json:"image_url" validate:"omitempty,max=500"`
	IsOnline        *bool             `json:"is_online"`
}

type EventService struct {
	events *storage.EventRepo
}

func NewEventService(events *storage.EventRepo) *EventService {
	return &EventService{events: events}
}

func validateEvent(e models.Event) error {
	fields := map[string]string{}
	if !e.Type.Valid() {
		fields["type"] = "must be one of conference, workshop, webinar, meetup"
	}
	if e.EndDate.Before(e.StartDate) {
		fields["end_date"] = "must not be before start_date"
	}
	if !isHTTPURL(e.ImageURL) {
		fields["image_url"] = msgImageURL
	}
	if e.MaxParticipants != nil && e.CurrentParticipants > *e.MaxParticipants {
		fields["max_participants"] = "must not be below current participants"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("Invalid event data", fields)
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, in EventInput) (models.Event, error) {
	e := models.Event{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Location:        in.Location,
		MaxParticipants: in.MaxParticipants,
		Type:            in.Type,
		Price:           in.Price,
		ImageURL:        in.ImageURL,
		IsOnline:        in.IsOnline,
	}
	if err := validateEvent(e); err != nil {
		return models.Event{}, err
	}
	if err := s.events.Create(ctx, &e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *EventService) List(ctx context.Context, f storage.EventFilter) ([]models.Event, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.ValidationFields("Invalid query parameters",
			map[string]string{"type": "must be one of conference, workshop, webinar, meetup"})
	}
	return s.events.List(ctx, f)
}

func (s *EventService) Get(ctx context.Context, id uint) (models.Event, error) {
	return s.events.Get(ctx, id)
}

// Update проверяет событие целиком, но сохраняет только изменённые поля.
func (s *EventService) Update(ctx context.Context, id uint, in EventUpdate) (models.Event, error) {
	e, err := s.events.Get(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
		updates["title"] = e.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
		updates["description"] = e.Description
	}
	if in.StartDate != nil {
		e.StartDate = *in.StartDate
		updates["start_date"] = e.StartDate
	}
	if in.EndDate != nil {
		e.EndDate = *in.EndDate
		updates["end_date"] = e.EndDate
	}
	if in.Location != nil {
		e.Location = *in.Location
		updates["location"] = e.Location
	}
	if in.MaxParticipants != nil {
		e.MaxParticipants = in.MaxParticipants
		updates["max_participants"] = *in.MaxParticipants
	}
	if in.Type != nil {
		e.Type = *in.Type
		updates["type"] = e.Type
	}
	if in.Price != nil {
		e.Price = in.Price
		updates["price"] = *in.Price
	}
	if in.ImageURL != nil {
		e.ImageURL = *in.ImageURL
		updates["image_url"] = e.ImageURL
	}
	if in.IsOnline != nil {
		e.IsOnline = *in.IsOnline
		updates["is_online"] = e.IsOnline
	}
	if err := validateEvent(e); err != nil {
		return models.Event{}, err
	}
	if len(updates) == 0 {
		return e, nil
	}
	return s.events.Update(ctx, id, updates)
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	return s.events.Delete(ctx, id)
}

// Register занимает одно место; при заполненном событии - Conflict.
func (s *EventService) Register(ctx context.Context, id uint) (models.Event, error) {
	return s.events.Register(ctx, id)
}
