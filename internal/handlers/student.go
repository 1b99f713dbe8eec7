package handlers

import (
	"net/http"

	"github.com/haxxxs/edu-back/internal/models"
)

// Маршруты студента: каталог, запись на курс, контент и прогресс.

type practiceRequest struct {
	Answer string `json:"answer" validate:"max=10000"`
}

type EnrollResponse struct {
	Message    string            `json:"message"`
	Enrollment models.UserCourse `json:"enrollment"`
}

// ListCourses - GET /api/courses. Админ видит и неактивные курсы
// с ?include_inactive=true.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	includeInactive, err := QueryBool(r, "include_inactive")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	all := includeInactive != nil && *includeInactive && Actor(r).IsAdmin
	courses, err := h.Svc.Courses.List(r.Context(), all)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, courses)
}

// GetCourse - GET /api/courses/{id}
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.Svc.Courses.Get(r.Context(), Actor(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// Enroll - POST /api/courses/{id}/enroll
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	uc, err := h.Svc.Enrollments.Enroll(r.Context(), Actor(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, EnrollResponse{Message: "Enrolled successfully", Enrollment: uc})
}

// GetCourseContent - GET /api/courses/{id}/content
func (h *Handler) GetCourseContent(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.Svc.Content.GetCourseContent(r.Context(), Actor(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// CompleteLesson - POST /api/courses/{id}/lessons/{lessonID}/complete
func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	courseID, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lessonID, err := PathID(r, "lessonID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Svc.Content.CompleteLesson(r.Context(), Actor(r), courseID, lessonID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// ValidatePractice - POST /api/courses/{id}/lessons/{lessonID}/practice/{blockID}/validate
func (h *Handler) ValidatePractice(w http.ResponseWriter, r *http.Request) {
	var ids [3]uint
	for i, name := range []string{"id", "lessonID", "blockID"} {
		id, err := PathID(r, name)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ids[i] = id
	}
	var req practiceRequest
	if err := h.Bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Svc.Content.ValidatePractice(r.Context(), Actor(r), ids[0], ids[1], ids[2], req.Answer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// GetCourseProgress - GET /api/courses/{id}/progress
func (h *Handler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Svc.Content.GetCourseProgress(r.Context(), Actor(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
