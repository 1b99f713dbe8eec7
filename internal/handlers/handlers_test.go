package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/services"
)

func TestValidatorUsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Struct(&services.CourseInput{
		Modules: []services.ModuleInput{{}},
	})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Validation, e.Kind)
	assert.Contains(t, e.Fields, "title")
	assert.Contains(t, e.Fields, "full_description")
	assert.Contains(t, e.Fields["title"], "required")
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "modules[0].title", fieldPath("CourseInput.modules[0].title"))
	assert.Equal(t, "email", fieldPath("email"))
}

func TestBind(t *testing.T) {
	h := &Handler{Log: zap.NewNop(), V: NewValidator()}

	var req registerRequest
	err := h.Bind(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &req)
	assert.Equal(t, "Request body is required", mustAppErr(t, err).Message)

	err = h.Bind(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &req)
	assert.Equal(t, "Invalid JSON payload", mustAppErr(t, err).Message)

	err = h.Bind(httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"email":"a@b.co","password":"password123"}`)), &req)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", req.Email)
}

func mustAppErr(t *testing.T, err error) *apperr.Error {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "%v", err)
	return e
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	WriteError(rec, req, zap.NewNop(), errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"internal","message":"internal server error"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteError(rec, req, zap.NewNop(), apperr.TooMany(30*time.Second))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	WriteError(rec, req, zap.NewNop(), apperr.NotFoundf("Course not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"not_found","message":"Course not found"}}`, rec.Body.String())
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&flag=true&bad=x", nil)

	n, err := QueryInt(req, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = QueryInt(req, "offset", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = QueryInt(req, "bad", 0)
	assert.True(t, apperr.Is(err, apperr.Validation))

	b, err := QueryBool(req, "flag")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)

	b, err = QueryBool(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, b)
}
