package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/auth"
	"github.com/haxxxs/edu-back/internal/database"
	"github.com/haxxxs/edu-back/internal/handlers"
	"github.com/haxxxs/edu-back/internal/ratelimit"
	"github.com/haxxxs/edu-back/internal/server"
	"github.com/haxxxs/edu-back/internal/services"
	"github.com/haxxxs/edu-back/internal/testutil/memdb"
)

type env struct {
	t      *testing.T
	db     *gorm.DB
	router http.Handler
}

func newEnv(t *testing.T, limit int) *env {
	t.Helper()
	db := memdb.Open(t)
	svc := services.New(services.Deps{
		DB:     db,
		Tokens: auth.NewTokenIssuer("test-secret", time.Hour),
		Log:    zap.NewNop(),
	})
	h := handlers.NewHandler(db, svc, nil, nil, zap.NewNop())
	limiter := ratelimit.NewMemoryStore(limit, time.Minute, 100)
	return &env{t: t, db: db, router: server.NewRouter(h, limiter, []string{"*"})}
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) login(email, password string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var tok services.Token
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(e.t, "bearer", tok.TokenType)
	return tok.Token
}

func (e *env) student(email string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "password123", "name": "Student",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return e.login(email, "password123")
}

func (e *env) admin() string {
	e.t.Helper()
	hash, err := auth.HashPassword("adminpass123")
	require.NoError(e.t, err)
	_, _, err = database.EnsureAdmin(context.Background(), e.db, "admin@example.com", "Admin", hash, nil)
	require.NoError(e.t, err)
	return e.login("admin@example.com", "adminpass123")
}

type apiError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRegisterLoginProfile(t *testing.T) {
	e := newEnv(t, 100)
	tok := e.student("Alice@Example.com")

	rec := e.do(http.MethodGet, "/api/auth/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p handlers.ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "alice@example.com", p.Email)
	assert.False(t, p.IsAdmin)

	rec = e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password", decodeErr(t, rec).Error.Message)
}

func TestRegisterValidationEnvelope(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErr(t, rec)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Contains(t, body.Error.Fields, "email")
	assert.Contains(t, body.Error.Fields, "password")
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "unauthenticated", decodeErr(t, rec).Error.Code)

	rec = e.do(http.MethodGet, "/api/courses", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesForbiddenForStudent(t *testing.T) {
	e := newEnv(t, 100)
	tok := e.student("bob@example.com")

	rec := e.do(http.MethodGet, "/api/admin/dashboard", tok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeErr(t, rec).Error.Code)

	rec = e.do(http.MethodPost, "/api/courses", tok, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventsArePublic(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t, 2)

	for i := 0; i < 2; i++ {
		rec := e.do(http.MethodGet, "/api/events", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, fmt.Sprint(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := e.do(http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "too_many_requests", decodeErr(t, rec).Error.Code)

	// другой маршрут считается отдельно
	rec = e.do(http.MethodGet, "/api/events/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitPerPath(t *testing.T) {
	e := newEnv(t, 2)

	// один шаблон маршрута, разные пути: у каждого своё окно
	for _, id := range []int{1, 2, 3} {
		rec := e.do(http.MethodGet, fmt.Sprintf("/api/events/%d", id), "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "events/%d", id)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := e.do(http.MethodGet, "/api/events/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = e.do(http.MethodGet, "/api/events/1", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = e.do(http.MethodGet, "/api/events/2", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollAndUserCoursesCache(t *testing.T) {
	e := newEnv(t, 100)
	adminTok := e.admin()
	tok := e.student("carol@example.com")

	rec := e.do(http.MethodPost, "/api/courses", adminTok, map[string]any{
		"title":            "Go basics",
		"description":      "Intro",
		"full_description": "Everything about Go",
		"level":            "beginner",
		"duration":         "4 weeks",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &course))

	rec = e.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), tok, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), tok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodGet, "/api/auth/profile", tok, nil)
	var p handlers.ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))

	path := fmt.Sprintf("/api/users/%d/courses", p.ID)
	rec = e.do(http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var page services.UserCoursesPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.TotalCount)

	rec = e.do(http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t, 100)
	req := httptest.NewRequest(http.MethodOptions, "/api/courses", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeErr(t, rec).Error.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := server.New("127.0.0.1:0", http.NotFoundHandler(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
