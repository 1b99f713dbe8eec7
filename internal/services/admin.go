package services

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/export"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
)

const (
	DefaultAdminLimit = 100
	MaxAdminLimit     = 1000
)

type DashboardStats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalCourses      int64 `json:"total_courses"`
	TotalEnrollments  int64 `json:"total_enrollments"`
	TotalCertificates int64 `json:"total_certificates"`
}

type DashboardAdmin struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Dashboard struct {
	Statistics DashboardStats `json:"statistics"`
	Admin      DashboardAdmin `json:"admin"`
}

type AdminUser struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminUsersPage struct {
	Total int64       `json:"total"`
	Users []AdminUser `json:"users"`
}

type AdminCourse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type AdminCoursesPage struct {
	Total   int64         `json:"total"`
	Courses []AdminCourse `json:"courses"`
}

type AdminEnrollment struct {
	ID             uint                    `json:"id"`
	UserID         uint                    `json:"user_id"`
	UserName       string                  `json:"user_name"`
	CourseID       uint                    `json:"course_id"`
	CourseTitle    string                  `json:"course_title"`
	Progress       float64                 `json:"progress"`
	Status         models.EnrollmentStatus `json:"status"`
	StartedAt      time.Time               `json:"started_at"`
	LastAccessedAt time.Time               `json:"last_accessed_at"`
	CompletedAt    *time.Time              `json:"completed_at"`
	HasCertificate bool                    `json:"has_certificate"`
}

type AdminEnrollmentsPage struct {
	Total       int64             `json:"total"`
	Enrollments []AdminEnrollment `json:"enrollments"`
}

// Page - параметры постраничной выборки админки.
type Page struct {
	Limit  int
	Offset int
}

func (p *Page) normalize() error {
	if p.Limit == 0 {
		p.Limit = DefaultAdminLimit
	}
	fields := map[string]string{}
	if p.Limit < 1 || p.Limit > MaxAdminLimit {
		fields["limit"] = "must be between 1 and 1000"
	}
	if p.Offset < 0 {
		fields["offset"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("Invalid query parameters", fields)
	}
	return nil
}

type AdminService struct {
	users       *storage.UserRepo
	courses     *storage.CourseRepo
	enrollments *storage.EnrollmentRepo
}

func NewAdminService(users *storage.UserRepo, courses *storage.CourseRepo, enrollments *storage.EnrollmentRepo) *AdminService {
	return &AdminService{users: users, courses: courses, enrollments: enrollments}
}

// Dashboard считает сводку параллельно.
func (s *AdminService) Dashboard(ctx context.Context, actor Actor) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Statistics.TotalUsers, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Statistics.TotalCourses, err = s.courses.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Statistics.TotalEnrollments, err = s.enrollments.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Statistics.TotalCertificates, err = s.enrollments.CountCertificates(gctx)
		return err
	})
	g.Go(func() error {
		u, err := s.users.GetByID(gctx, actor.UserID)
		if err != nil {
			return err
		}
		d.Admin = DashboardAdmin{ID: u.ID, Name: u.Name, Email: u.Email}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *AdminService) Users(ctx context.Context, p Page) (AdminUsersPage, error) {
	if err := p.normalize(); err != nil {
		return AdminUsersPage{}, err
	}
	users, total, err := s.users.List(ctx, p.Limit, p.Offset)
	if err != nil {
		return AdminUsersPage{}, err
	}
	out := AdminUsersPage{Total: total, Users: make([]AdminUser, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, AdminUser{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			IsAdmin:   u.IsAdmin,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

func (s *AdminService) Courses(ctx context.Context, p Page) (AdminCoursesPage, error) {
	if err := p.normalize(); err != nil {
		return AdminCoursesPage{}, err
	}
	courses, total, err := s.courses.Page(ctx, p.Limit, p.Offset)
	if err != nil {
		return AdminCoursesPage{}, err
	}
	out := AdminCoursesPage{Total: total, Courses: make([]AdminCourse, 0, len(courses))}
	for _, c := range courses {
		out.Courses = append(out.Courses, AdminCourse{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			IsActive:    c.IsActive,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out, nil
}

func (s *AdminService) UserCourses(ctx context.Context, p Page) (AdminEnrollmentsPage, error) {
	if err := p.normalize(); err != nil {
		return AdminEnrollmentsPage{}, err
	}
	items, total, err := s.enrollments.ListAll(ctx, p.Limit, p.Offset)
	if err != nil {
		return AdminEnrollmentsPage{}, err
	}
	out := AdminEnrollmentsPage{Total: total, Enrollments: make([]AdminEnrollment, 0, len(items))}
	for _, uc := range items {
		out.Enrollments = append(out.Enrollments, AdminEnrollment{
			ID:             uc.ID,
			UserID:         uc.UserID,
			UserName:       uc.User.Name,
			CourseID:       uc.CourseID,
			CourseTitle:    uc.Course.Title,
			Progress:       uc.Progress,
			Status:         uc.Status,
			StartedAt:      uc.StartedAt,
			LastAccessedAt: uc.LastAccessedAt,
			CompletedAt:    uc.CompletedAt,
			HasCertificate: uc.CertificateID != nil,
		})
	}
	return out, nil
}

// ToggleAdmin переключает флаг администратора. Свой флаг менять нельзя.
func (s *AdminService) ToggleAdmin(ctx context.Context, actor Actor, userID uint) (models.User, string, error) {
	if actor.UserID == userID {
		return models.User{}, "", apperr.Validationf("Невозможно изменить права администратора для собственной учетной записи")
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return models.User{}, "", err
	}
	u, err = s.users.Update(ctx, userID, map[string]any{"is_admin": !u.IsAdmin})
	if err != nil {
		return models.User{}, "", err
	}
	msg := "Статус администратора снят"
	if u.IsAdmin {
		msg = "Статус администратора назначен"
	}
	return u, msg, nil
}

// ToggleActive блокирует или разблокирует пользователя.
func (s *AdminService) ToggleActive(ctx context.Context, actor Actor, userID uint) (models.User, string, error) {
	if actor.UserID == userID {
		return models.User{}, "", apperr.Validationf("Невозможно заблокировать собственную учетную запись")
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return models.User{}, "", err
	}
	u, err = s.users.Update(ctx, userID, map[string]any{"is_active": !u.IsActive})
	if err != nil {
		return models.User{}, "", err
	}
	msg := "Пользователь заблокирован"
	if u.IsActive {
		msg = "Пользователь разблокирован"
	}
	return u, msg, nil
}

func (s *AdminService) getUser(ctx context.Context, id uint) (models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if apperr.Is(err, apperr.NotFound) {
		return models.User{}, apperr.NotFoundf("Пользователь с ID %d не найден", id)
	}
	return u, err
}

// ExportUserCourses пишет все записи на курсы в XLSX.
func (s *AdminService) ExportUserCourses(ctx context.Context, w io.Writer) error {
	items, _, err := s.enrollments.ListAll(ctx, 0, 0)
	if err != nil {
		return err
	}
	return export.WriteUserCourses(w, items)
}
