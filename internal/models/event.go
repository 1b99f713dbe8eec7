package models

import "time"

type EventType string

const (
	EventConference EventType = "conference"
	EventWorkshop   EventType = "workshop"
	EventWebinar    EventType = "webinar"
	EventMeetup     EventType = "meetup"
)

func (t EventType) Valid() bool {
	switch t {
	case EventConference, EventWorkshop, EventWebinar, EventMeetup:
		return true
	}
	return false
}

type Event struct {
	ID                  uint      `gorm:"primarykey" json:"id"`
	Title               string    `gorm:"size:200;not null" json:"title"`
	Description         string    `gorm:"type:text" json:"description"`
	StartDate           time.Time `gorm:"index;not null" json:"start_date"`
	EndDate             time.Time `gorm:"not null" json:"end_date"`
	Location            string    `gorm:"size:300" json:"location"`
	MaxParticipants     *int      `json:"max_participants"`
	CurrentParticipants int       `gorm:"not null;default:0" json:"current_participants"`
	Type                EventType `gorm:"size:20;not null" json:"type"`
	Price               *float64  `json:"price"`
	ImageURL            string    `gorm:"size:500" json:"image_url"`
	IsOnline            bool      `json:"is_online"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Full сообщает, что мест больше нет.
func (e Event) Full() bool {
	return e.MaxParticipants != nil && e.CurrentParticipants >= *e.MaxParticipants
}
