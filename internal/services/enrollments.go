package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
)

const (
	StatusFilterAll        = "all"
	StatusFilterCompleted  = "completed"
	StatusFilterInProgress = "in_progress"
)

type UserCourseItem struct {
	ID             uint                    `json:"id"`
	Title          string                  `json:"title"`
	CoverImage     string                  `json:"cover_image"`
	Status         models.EnrollmentStatus `json:"status"`
	HasCertificate bool                    `json:"has_certificate"`
	Progress       float64                 `json:"progress"`
	LastAccessedAt time.Time               `json:"last_accessed_at"`
}

type UserCoursesStats struct {
	CompletedCourses int64 `json:"completed_courses"`
	ActiveCourses    int64 `json:"active_courses"`
	Certificates     int64 `json:"certificates"`
}

type UserCoursesPage struct {
	Courses    []UserCourseItem `json:"courses"`
	TotalCount int64            `json:"total_count"`
	UserStats  UserCoursesStats `json:"user_stats"`
}

type UserCoursesQuery struct {
	UserID uint
	Limit  int
	Offset int
	Status string
}

type EnrollmentService struct {
	users       *storage.UserRepo
	enrollments *storage.EnrollmentRepo
	cache       *enrollmentCache
	group       singleflight.Group
}

func NewEnrollmentService(users *storage.UserRepo, enrollments *storage.EnrollmentRepo, ec *enrollmentCache) *EnrollmentService {
	return &EnrollmentService{users: users, enrollments: enrollments, cache: ec}
}

// Enroll записывает текущего пользователя на курс.
func (s *EnrollmentService) Enroll(ctx context.Context, actor Actor, courseID uint) (models.UserCourse, error) {
	uc, err := s.enrollments.Create(ctx, actor.UserID, courseID)
	if err != nil {
		return models.UserCourse{}, err
	}
	s.cache.invalidateUser(ctx, actor.UserID)
	return uc, nil
}

func validateUserCoursesQuery(q *UserCoursesQuery) error {
	fields := map[string]string{}
	if q.Limit < 1 || q.Limit > 100 {
		fields["limit"] = "must be between 1 and 100"
	}
	if q.Offset < 0 {
		fields["offset"] = "must be >= 0"
	}
	switch q.Status {
	case "":
		q.Status = StatusFilterAll
	case StatusFilterAll, StatusFilterCompleted, StatusFilterInProgress:
	default:
		fields["status"] = "must be one of all, completed, in_progress"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("Invalid query parameters", fields)
	}
	return nil
}

// ListUserCourses отдаёт страницу курсов пользователя; второй результат
// сообщает, пришёл ли ответ из кэша.
func (s *EnrollmentService) ListUserCourses(ctx context.Context, actor Actor, q UserCoursesQuery) (UserCoursesPage, bool, error) {
	if err := validateUserCoursesQuery(&q); err != nil {
		return UserCoursesPage{}, false, err
	}
	// 1. Права доступа
	if !actor.owns(q.UserID) {
		return UserCoursesPage{}, false, apperr.Forbiddenf("Нет доступа к курсам другого пользователя")
	}

	// 2. Кэш
	key := userCoursesKey(q.UserID, q.Limit, q.Offset, q.Status)
	var page UserCoursesPage
	if s.cache.get(ctx, key, &page) {
		return page, true, nil
	}

	// 3. Параллельные промахи по одному ключу и поколению идут в БД один раз
	gen := s.cache.generation(q.UserID)
	flight := fmt.Sprintf("%s@%d.%d", key, gen.global, gen.user)
	v, err, _ := s.group.Do(flight, func() (any, error) {
		p, err := s.load(ctx, q)
		if err != nil {
			return nil, err
		}
		s.cache.setFresh(ctx, key, q.UserID, gen, p)
		return p, nil
	})
	if err != nil {
		return UserCoursesPage{}, false, err
	}
	return v.(UserCoursesPage), false, nil
}

func (s *EnrollmentService) load(ctx context.Context, q UserCoursesQuery) (UserCoursesPage, error) {
	if _, err := s.users.GetByID(ctx, q.UserID); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return UserCoursesPage{}, apperr.NotFoundf("Пользователь с ID %d не найден", q.UserID)
		}
		return UserCoursesPage{}, err
	}

	var status models.EnrollmentStatus
	if q.Status != StatusFilterAll {
		status = models.EnrollmentStatus(q.Status)
	}
	rows, total, err := s.enrollments.ListByUser(ctx, q.UserID, status, q.Limit, q.Offset)
	if err != nil {
		return UserCoursesPage{}, err
	}
	stats, err := s.enrollments.Stats(ctx, q.UserID)
	if err != nil {
		return UserCoursesPage{}, err
	}

	page := UserCoursesPage{
		Courses:    make([]UserCourseItem, 0, len(rows)),
		TotalCount: total,
		UserStats: UserCoursesStats{
			CompletedCourses: stats.Completed,
			ActiveCourses:    stats.Active,
			Certificates:     stats.Certificates,
		},
	}
	for _, r := range rows {
		cover := r.CoverImage
		if cover == "" {
			cover = r.ImageURL
		}
		page.Courses = append(page.Courses, UserCourseItem{
			ID:             r.CourseID,
			Title:          r.Title,
			CoverImage:     cover,
			Status:         r.Status,
			HasCertificate: r.CertificateID != nil,
			Progress:       r.Progress,
			LastAccessedAt: r.LastAccessedAt,
		})
	}
	return page, nil
}
