package handlers

import (
	"net/http"
	"time"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/services"
)

// queryTime принимает RFC3339 или дату вида 2006-01-02.
func queryTime(r *http.Request, name string, endOfDay bool) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperr.ValidationFields("Invalid query parameters",
			map[string]string{name: "must be RFC3339 or YYYY-MM-DD"})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// CreateNote - POST /api/calendar/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in services.NoteInput
	if err := h.Bind(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.Svc.Calendar.Create(r.Context(), Actor(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, n)
}

// ListNotes - GET /api/calendar/notes?start_date&end_date&is_important
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	var (
		q   services.NoteQuery
		err error
	)
	if q.From, err = queryTime(r, "start_date", false); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.To, err = queryTime(r, "end_date", true); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.IsImportant, err = QueryBool(r, "is_important"); err != nil {
		h.fail(w, r, err)
		return
	}
	notes, err := h.Svc.Calendar.List(r.Context(), Actor(r), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, notes)
}

// GetNote - GET /api/calendar/notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.Svc.Calendar.Get(r.Context(), Actor(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

// UpdateNote - PUT /api/calendar/notes/{id}
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.NoteUpdate
	if err := h.Bind(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.Svc.Calendar.Update(r.Context(), Actor(r), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

// DeleteNote - DELETE /api/calendar/notes/{id}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Svc.Calendar.Delete(r.Context(), Actor(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Calendar note deleted successfully"})
}
