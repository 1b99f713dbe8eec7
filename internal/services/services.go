// Package services содержит доменную логику поверх репозиториев storage.
package services

import (
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/auth"
	"github.com/haxxxs/edu-back/internal/cache"
	"github.com/haxxxs/edu-back/internal/storage"
)

// Notifier - асинхронная отправка сообщения пользователю.
type Notifier interface {
	NotifyAsync(recipient, text string)
}

type nopNotifier struct{}

func (nopNotifier) NotifyAsync(string, string) {}

// Actor - кто выполняет операцию.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// owns: владелец или админ.
func (a Actor) owns(userID uint) bool {
	return a.IsAdmin || a.UserID == userID
}

type Deps struct {
	DB       *gorm.DB
	Tokens   *auth.TokenIssuer
	Cache    cache.Cache
	CacheTTL time.Duration
	Notifier Notifier
	Log      *zap.Logger

	ReminderLead time.Duration
}

type Services struct {
	Auth        *AuthService
	Courses     *CourseService
	Content     *ContentService
	Enrollments *EnrollmentService
	Calendar    *CalendarService
	Events      *EventService
	Tasks       *TaskService
	Admin       *AdminService
	Reminders   *ReminderService
}

func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemory(0)
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	if d.ReminderLead <= 0 {
		d.ReminderLead = 30 * time.Minute
	}

	users := storage.NewUserRepo(d.DB)
	courses := storage.NewCourseRepo(d.DB)
	progress := storage.NewProgressRepo(d.DB)
	enrollments := storage.NewEnrollmentRepo(d.DB)
	notes := storage.NewNoteRepo(d.DB)

	ec := &enrollmentCache{cache: d.Cache, ttl: d.CacheTTL, log: d.Log.Named("cache")}

	return &Services{
		Auth:        NewAuthService(users, d.Tokens),
		Courses:     NewCourseService(courses, ec, d.Log),
		Content:     NewContentService(users, courses, progress, enrollments, ec, d.Log),
		Enrollments: NewEnrollmentService(users, enrollments, ec),
		Calendar:    NewCalendarService(notes, users, d.Notifier),
		Events:      NewEventService(storage.NewEventRepo(d.DB)),
		Tasks:       NewTaskService(storage.NewTaskRepo(d.DB)),
		Admin:       NewAdminService(users, courses, enrollments),
		Reminders:   NewReminderService(notes, d.Notifier, d.ReminderLead, d.Log),
	}
}

// isHTTPURL: пустая строка допустима, иначе только http(s) с хостом.
func isHTTPURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
