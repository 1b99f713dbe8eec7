package handlers

import (
	"net/http"

	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/services"
	"github.com/haxxxs/edu-back/internal/storage"
)

func optionalInt(r *http.Request, name string) (*int, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	n, err := QueryInt(r, name, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateEvent - POST /api/events (admin)
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in services.EventInput
	if err := h.Bind(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.Svc.Events.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, e)
}

// ListEvents - GET /api/events?type&is_online&min_participants&max_participants
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		f   = storage.EventFilter{Type: models.EventType(r.URL.Query().Get("type"))}
		err error
	)
	if f.IsOnline, err = QueryBool(r, "is_online"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.MinParticipants, err = optionalInt(r, "min_participants"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.MaxParticipants, err = optionalInt(r, "max_participants"); err != nil {
		h.fail(w, r, err)
		return
	}
	events, err := h.Svc.Events.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

// GetEvent - GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.Svc.Events.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

// UpdateEvent - PUT /api/events/{id} (admin)
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.EventUpdate
	if err := h.Bind(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.Svc.Events.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

// DeleteEvent - DELETE /api/events/{id} (admin)
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Svc.Events.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Event deleted successfully"})
}

// RegisterForEvent - PUT /api/events/{id}/register
func (h *Handler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.Svc.Events.Register(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}
