package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/haxxxs/edu-back/internal/handlers"
	"github.com/haxxxs/edu-back/internal/handlers/admin"
	"github.com/haxxxs/edu-back/internal/handlers/personal"
	"github.com/haxxxs/edu-back/internal/metrics"
	"github.com/haxxxs/edu-back/internal/middleware"
	"github.com/haxxxs/edu-back/internal/ratelimit"
)

// NewRouter собирает все маршруты. CORS оборачивает роутер снаружи,
// чтобы preflight-запросы не упирались в 405.
func NewRouter(h *handlers.Handler, limiter ratelimit.Limiter, corsOrigins []string) http.Handler {
	adminService := admin.New(h)
	personalService := personal.New(h)

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger(h.Log), middleware.Recover(h))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteJSON(w, http.StatusNotFound, map[string]map[string]string{
			"error": {"code": "not_found", "message": "Not Found"},
		})
	})

	// --- Служебные ---
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RateLimit(h, limiter))

	// --- Публичные маршруты ---
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/google/login", h.HandleGoogleLogin).Methods(http.MethodGet)
	api.HandleFunc("/auth/google/callback", h.HandleGoogleCallback).Methods(http.MethodGet)
	api.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)
	api.HandleFunc("/events/{id:[0-9]+}", h.GetEvent).Methods(http.MethodGet)

	// --- Маршруты пользователя ---
	user := api.NewRoute().Subrouter()
	user.Use(middleware.RequireAuth(h))

	user.HandleFunc("/auth/profile", h.Profile).Methods(http.MethodGet)
	user.HandleFunc("/auth/profile", h.UpdateProfile).Methods(http.MethodPut)

	user.HandleFunc("/courses", h.ListCourses).Methods(http.MethodGet)
	user.HandleFunc("/courses/{id:[0-9]+}", h.GetCourse).Methods(http.MethodGet)
	user.HandleFunc("/courses/{id:[0-9]+}/enroll", h.Enroll).Methods(http.MethodPost)
	user.HandleFunc("/courses/{id:[0-9]+}/content", h.GetCourseContent).Methods(http.MethodGet)
	user.HandleFunc("/courses/{id:[0-9]+}/progress", h.GetCourseProgress).Methods(http.MethodGet)
	user.HandleFunc("/courses/{id:[0-9]+}/lessons/{lessonID:[0-9]+}/complete", h.CompleteLesson).Methods(http.MethodPost)
	user.HandleFunc("/courses/{id:[0-9]+}/lessons/{lessonID:[0-9]+}/practice/{blockID:[0-9]+}/validate", h.ValidatePractice).Methods(http.MethodPost)

	user.HandleFunc("/users/{id:[0-9]+}/courses", personalService.GetUserCoursesAPI).Methods(http.MethodGet)

	user.HandleFunc("/calendar/notes", h.CreateNote).Methods(http.MethodPost)
	user.HandleFunc("/calendar/notes", h.ListNotes).Methods(http.MethodGet)
	user.HandleFunc("/calendar/notes/{id:[0-9]+}", h.GetNote).Methods(http.MethodGet)
	user.HandleFunc("/calendar/notes/{id:[0-9]+}", h.UpdateNote).Methods(http.MethodPut)
	user.HandleFunc("/calendar/notes/{id:[0-9]+}", h.DeleteNote).Methods(http.MethodDelete)

	user.HandleFunc("/events/{id:[0-9]+}/register", h.RegisterForEvent).Methods(http.MethodPut)

	user.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	user.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	user.HandleFunc("/tasks/{id:[0-9]+}", h.GetTask).Methods(http.MethodGet)
	user.HandleFunc("/tasks/{id:[0-9]+}", h.UpdateTask).Methods(http.MethodPut)
	user.HandleFunc("/tasks/{id:[0-9]+}", h.DeleteTask).Methods(http.MethodDelete)

	// --- Админские маршруты ---
	adm := user.NewRoute().Subrouter()
	adm.Use(middleware.RequireAdmin(h))

	adm.HandleFunc("/courses", adminService.CreateCourseAPI).Methods(http.MethodPost)
	adm.HandleFunc("/courses/{id:[0-9]+}", adminService.UpdateCourseAPI).Methods(http.MethodPut)
	adm.HandleFunc("/courses/{id:[0-9]+}", adminService.DeleteCourseAPI).Methods(http.MethodDelete)
	adm.HandleFunc("/courses/{id:[0-9]+}/modules", adminService.CreateModuleAPI).Methods(http.MethodPost)
	adm.HandleFunc("/modules/{id:[0-9]+}", adminService.UpdateModuleAPI).Methods(http.MethodPut)
	adm.HandleFunc("/modules/{id:[0-9]+}", adminService.DeleteModuleAPI).Methods(http.MethodDelete)
	adm.HandleFunc("/modules/{id:[0-9]+}/lessons", adminService.CreateLessonAPI).Methods(http.MethodPost)
	adm.HandleFunc("/lessons/{id:[0-9]+}", adminService.GetLessonAPI).Methods(http.MethodGet)
	adm.HandleFunc("/lessons/{id:[0-9]+}", adminService.UpdateLessonAPI).Methods(http.MethodPut)
	adm.HandleFunc("/lessons/{id:[0-9]+}", adminService.DeleteLessonAPI).Methods(http.MethodDelete)
	adm.HandleFunc("/lessons/{id:[0-9]+}/content", adminService.UpdateLessonContentAPI).Methods(http.MethodPut)

	adm.HandleFunc("/events", h.CreateEvent).Methods(http.MethodPost)
	adm.HandleFunc("/events/{id:[0-9]+}", h.UpdateEvent).Methods(http.MethodPut)
	adm.HandleFunc("/events/{id:[0-9]+}", h.DeleteEvent).Methods(http.MethodDelete)

	adm.HandleFunc("/admin/dashboard", adminService.HandleDashboard).Methods(http.MethodGet)
	adm.HandleFunc("/admin/users", adminService.HandleUsers).Methods(http.MethodGet)
	adm.HandleFunc("/admin/users/{id:[0-9]+}/admin", adminService.HandleToggleAdmin).Methods(http.MethodPut)
	adm.HandleFunc("/admin/users/{id:[0-9]+}/active", adminService.HandleToggleActive).Methods(http.MethodPut)
	adm.HandleFunc("/admin/courses", adminService.HandleCourses).Methods(http.MethodGet)
	adm.HandleFunc("/admin/user-courses", adminService.HandleUserCourses).Methods(http.MethodGet)
	adm.HandleFunc("/admin/user-courses/export", adminService.HandleExportUserCourses).Methods(http.MethodGet)

	return middleware.CORS(corsOrigins)(r)
}
