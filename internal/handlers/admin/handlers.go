package admin

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/export"
	"github.com/haxxxs/edu-back/internal/handlers"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/services"
)

// Service - админские маршруты поверх общего Handler.
type Service struct {
	*handlers.Handler
}

func New(h *handlers.Handler) *Service { return &Service{Handler: h} }

type ToggleResponse struct {
	Message  string `json:"message"`
	UserID   uint   `json:"user_id"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

func page(r *http.Request) (services.Page, error) {
	limit, err := handlers.QueryInt(r, "limit", services.DefaultAdminLimit)
	if err != nil {
		return services.Page{}, err
	}
	offset, err := handlers.QueryInt(r, "offset", 0)
	if err != nil {
		return services.Page{}, err
	}
	return services.Page{Limit: limit, Offset: offset}, nil
}

// HandleDashboard - GET /api/admin/dashboard
func (s *Service) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.Svc.Admin.Dashboard(r.Context(), handlers.Actor(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, d)
}

// HandleUsers - GET /api/admin/users?limit&offset
func (s *Service) HandleUsers(w http.ResponseWriter, r *http.Request) {
	p, err := page(r)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	out, err := s.Svc.Admin.Users(r.Context(), p)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, out)
}

// HandleCourses - GET /api/admin/courses?limit&offset
func (s *Service) HandleCourses(w http.ResponseWriter, r *http.Request) {
	p, err := page(r)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	out, err := s.Svc.Admin.Courses(r.Context(), p)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, out)
}

// HandleUserCourses - GET /api/admin/user-courses?limit&offset
func (s *Service) HandleUserCourses(w http.ResponseWriter, r *http.Request) {
	p, err := page(r)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	out, err := s.Svc.Admin.UserCourses(r.Context(), p)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, out)
}

func toggleResponse(u models.User, msg string) ToggleResponse {
	return ToggleResponse{Message: msg, UserID: u.ID, IsAdmin: u.IsAdmin, IsActive: u.IsActive}
}

// HandleToggleAdmin - PUT /api/admin/users/{id}/admin
func (s *Service) HandleToggleAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	u, msg, err := s.Svc.Admin.ToggleAdmin(r.Context(), handlers.Actor(r), id)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Log.Info("admin flag toggled",
		zap.Uint("by", handlers.Actor(r).UserID), zap.Uint("user_id", u.ID), zap.Bool("is_admin", u.IsAdmin))
	handlers.WriteJSON(w, http.StatusOK, toggleResponse(u, msg))
}

// HandleToggleActive - PUT /api/admin/users/{id}/active
func (s *Service) HandleToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	u, msg, err := s.Svc.Admin.ToggleActive(r.Context(), handlers.Actor(r), id)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Log.Info("active flag toggled",
		zap.Uint("by", handlers.Actor(r).UserID), zap.Uint("user_id", u.ID), zap.Bool("is_active", u.IsActive))
	handlers.WriteJSON(w, http.StatusOK, toggleResponse(u, msg))
}

// HandleExportUserCourses - GET /api/admin/user-courses/export
// Файл собирается в буфер целиком, чтобы ошибка не оборвала ответ на середине.
func (s *Service) HandleExportUserCourses(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.Svc.Admin.ExportUserCourses(r.Context(), &buf); err != nil {
		s.Fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.UserCoursesFilename(time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
