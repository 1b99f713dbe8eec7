package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newOAuthHandler() *Handler {
	return &Handler{
		Store: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		Config: &oauth2.Config{
			ClientID:    "client",
			RedirectURL: "http://localhost/api/auth/google/callback",
			Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: "https://accounts.example.com/token"},
		},
		Log: zap.NewNop(),
		V:   NewValidator(),
	}
}

func TestGoogleLoginSetsState(t *testing.T) {
	h := newOAuthHandler()
	rec := httptest.NewRecorder()
	h.HandleGoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	assert.Len(t, state, 32)
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestGoogleCallbackRejectsWrongState(t *testing.T) {
	h := newOAuthHandler()
	rec := httptest.NewRecorder()
	h.HandleGoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=forged&code=x", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.HandleGoogleCallback(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid OAuth state")
}

func TestGoogleDisabled(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}
	rec := httptest.NewRecorder()
	h.HandleGoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
