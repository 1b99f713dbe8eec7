package admin

import (
	"net/http"

	"github.com/haxxxs/edu-back/internal/handlers"
	"github.com/haxxxs/edu-back/internal/services"
)

// ==========================================
// COURSES API
// POST /api/courses, PUT|DELETE /api/courses/{id}
// ==========================================

func (s *Service) CreateCourseAPI(w http.ResponseWriter, r *http.Request) {
	var in services.CourseInput
	if err := s.Bind(r, &in); err != nil {
		s.Fail(w, r, err)
		return
	}
	c, err := s.Svc.Courses.Create(r.Context(), in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, c)
}

func (s *Service) UpdateCourseAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	var in services.CourseUpdate
	if err := s.Bind(r, &in); err != nil {
		s.Fail(w, r, err)
		return
	}
	c, err := s.Svc.Courses.Update(r.Context(), id, in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, c)
}

func (s *Service) DeleteCourseAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if err := s.Svc.Courses.Delete(r.Context(), id); err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.MessageResponse{Message: "Course deleted successfully"})
}

// =======================
// MODULES API
// =======================

// CreateModuleAPI - POST /api/courses/{id}/modules
func (s *Service) CreateModuleAPI(w http.ResponseWriter, r *http.Request) {
	courseID, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	var in services.ModuleInput
	if err := s.Bind(r, &in); err != nil {
		s.Fail(w, r, err)
		return
	}
	m, err := s.Svc.Courses.CreateModule(r.Context(), courseID, in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, m)
}

func (s *Service) UpdateModuleAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	var in services.ModuleUpdate
	if err := s.Bind(r, &in); err != nil {
		s.Fail(w, r, err)
		return
	}
	m, err := s.Svc.Courses.UpdateModule(r.Context(), id, in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, m)
}

func (s *Service) DeleteModuleAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if err := s.Svc.Courses.DeleteModule(r.Context(), id); err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.MessageResponse{Message: "Module deleted successfully"})
}

// =======================
// LESSONS API
// =======================

// CreateLessonAPI - POST /api/modules/{id}/lessons
func (s *Service) CreateLessonAPI(w http.ResponseWriter, r *http.Request) {
	moduleID, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	var in services.LessonInput
	if err := s.Bind(r, &in); err != nil {
		s.Fail(w, r, err)
		return
	}
	l, err := s.Svc.Courses.CreateLesson(r.Context(), moduleID, in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, l)
}

func (s *Service) GetLessonAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	l, err := s.Svc.Courses.GetLesson(r.Context(), id)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, l)
}

func (s *Service) UpdateLessonAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	var in services.LessonUpdate
	if err := s.Bind(r, &in); err != nil {
		s.Fail(w, r, err)
		return
	}
	l, err := s.Svc.Courses.UpdateLesson(r.Context(), id, in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, l)
}

func (s *Service) DeleteLessonAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if err := s.Svc.Courses.DeleteLesson(r.Context(), id); err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.MessageResponse{Message: "Lesson deleted successfully"})
}

// UpdateLessonContentAPI - PUT /api/lessons/{id}/content
// Блоки с ответами студентов меняются только с force_reset=true.
func (s *Service) UpdateLessonContentAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	var in services.ContentInput
	if err := s.Bind(r, &in); err != nil {
		s.Fail(w, r, err)
		return
	}
	l, err := s.Svc.Courses.ReplaceContent(r.Context(), id, in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, l)
}
