package handlers

import (
	"net/http"

	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/services"
)

// CreateTask - POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if err := h.Bind(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.Svc.Tasks.Create(r.Context(), Actor(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, t)
}

// ListTasks - GET /api/tasks?status=
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	status := models.TaskStatus(r.URL.Query().Get("status"))
	tasks, err := h.Svc.Tasks.List(r.Context(), Actor(r), status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.Svc.Tasks.Get(r.Context(), Actor(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.TaskUpdate
	if err := h.Bind(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.Svc.Tasks.Update(r.Context(), Actor(r), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Svc.Tasks.Delete(r.Context(), Actor(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}
