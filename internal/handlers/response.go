package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/ctxutil"
	"github.com/haxxxs/edu-back/internal/observability"
)

const msgInternal = "internal server error"

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// MessageResponse - ответ вида {"message": "..."}.
type MessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError переводит ошибку в HTTP-ответ. Неизвестные ошибки
// отдаются как 500 без подробностей, подробности уходят в лог и Sentry.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Wrap(err, "unhandled")
	}

	if e.Kind == apperr.Internal {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", ctxutil.RequestID(r.Context())),
			zap.Error(err),
		)
		observability.CaptureErr(err)
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: errorBody{
			Code:    apperr.Internal.String(),
			Message: msgInternal,
		}})
		return
	}

	if e.Kind == apperr.TooManyRequests && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
	}
	if e.Kind == apperr.Unauthenticated {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, e.Kind.Status(), errorResponse{Error: errorBody{
		Code:    e.PublicCode(),
		Message: e.Message,
		Fields:  e.Fields,
	}})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, h.Log, err)
}

// Fail - то же для подпакетов admin и personal.
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, h.Log, err)
}

// Bind читает JSON-тело и прогоняет валидацию по тегам validate.
func (h *Handler) Bind(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validationf("Request body is required")
		}
		return &apperr.Error{Kind: apperr.Validation, Message: "Invalid JSON payload", Err: err}
	}
	return h.V.Struct(dst)
}

// PathID читает числовой параметр маршрута.
func PathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ValidationFields("Invalid ID", map[string]string{name: "must be a positive integer"})
	}
	return uint(id), nil
}

// QueryInt читает целый параметр запроса; пустое значение даёт def.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ValidationFields("Invalid query parameters", map[string]string{name: "must be an integer"})
	}
	return n, nil
}

// QueryBool читает необязательный булев параметр.
func QueryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.ValidationFields("Invalid query parameters", map[string]string{name: "must be a boolean"})
	}
	return &b, nil
}
