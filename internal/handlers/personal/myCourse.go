package personal

import (
	"net/http"

	"github.com/haxxxs/edu-back/internal/handlers"
	"github.com/haxxxs/edu-back/internal/services"
)

// Service - личный кабинет: курсы пользователя.
type Service struct {
	*handlers.Handler
}

func New(h *handlers.Handler) *Service { return &Service{Handler: h} }

// GetUserCoursesAPI - GET /api/users/{id}/courses?limit&offset&status
// Заголовок X-Cache показывает, пришёл ли ответ из кэша.
func (s *Service) GetUserCoursesAPI(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	limit, err := handlers.QueryInt(r, "limit", 10)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	offset, err := handlers.QueryInt(r, "offset", 0)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	page, hit, err := s.Svc.Enrollments.ListUserCourses(r.Context(), handlers.Actor(r), services.UserCoursesQuery{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	handlers.WriteJSON(w, http.StatusOK, page)
}
