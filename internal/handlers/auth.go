package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/auth"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/services"
)

const (
	oauthSession  = "oauth"
	oauthStateKey = "state"
)

type registerRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Name       string `json:"name" validate:"max=255"`
	TelegramID string `json:"telegram_id" validate:"max=64"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=255"`
	About      *string `json:"about"`
	Location   *string `json:"location" validate:"omitempty,max=255"`
	AvatarURL  *string `json:"avatar_url" validate:"omitempty,max=512"`
	TelegramID *string `json:"telegram_id" validate:"omitempty,max=64"`
}

type ProfileResponse struct {
	ID         uint        `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	IsAdmin    bool        `json:"is_admin"`
	AvatarURL  string      `json:"avatar_url"`
	About      string      `json:"about"`
	Location   string      `json:"location"`
	TelegramID *string     `json:"telegram_id"`
	JoinedAt   time.Time   `json:"joined_at"`
}

func profileOf(u models.User) ProfileResponse {
	return ProfileResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsAdmin:    u.IsAdmin,
		AvatarURL:  u.AvatarURL,
		About:      u.About,
		Location:   u.Location,
		TelegramID: u.TelegramID,
		JoinedAt:   u.CreatedAt,
	}
}

// Register - POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.Bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.Svc.Auth.Register(r.Context(), services.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		TelegramID: req.TelegramID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Log.Info("user registered", zap.Uint("user_id", u.ID))
	WriteJSON(w, http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("User %s registered successfully. Please login.", u.Email),
	})
}

// Login - POST /api/auth/login. Принимает JSON {email,password}
// или форму username/password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, apperr.Validationf("Invalid form payload"))
			return
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		if err := h.V.Struct(&req); err != nil {
			h.fail(w, r, err)
			return
		}
	} else if err := h.Bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	tok, _, err := h.Svc.Auth.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tok)
}

// Profile - GET /api/auth/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.Auth.Profile(r.Context(), Actor(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, profileOf(u))
}

// UpdateProfile - PUT /api/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := h.Bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.Svc.Auth.UpdateProfile(r.Context(), Actor(r).UserID, services.ProfileInput{
		Name:       req.Name,
		About:      req.About,
		Location:   req.Location,
		AvatarURL:  req.AvatarURL,
		TelegramID: req.TelegramID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, profileOf(u))
}

// =======================
// GOOGLE OAUTH
// =======================

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HandleGoogleLogin кладёт случайный state в сессию и уводит на Google.
func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Config == nil {
		h.fail(w, r, apperr.NotFoundf("Google login is not configured"))
		return
	}
	state, err := newState()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	session, _ := h.Store.Get(r, oauthSession)
	session.Values[oauthStateKey] = state
	session.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   600,
		SameSite: http.SameSiteLaxMode,
	}
	if err := session.Save(r, w); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, h.Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback сверяет state, меняет code на профиль и выдаёт JWT.
func (h *Handler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.Config == nil {
		h.fail(w, r, apperr.NotFoundf("Google login is not configured"))
		return
	}
	session, _ := h.Store.Get(r, oauthSession)
	expected, _ := session.Values[oauthStateKey].(string)
	if expected == "" || r.URL.Query().Get("state") != expected {
		h.fail(w, r, apperr.Unauthenticatedf("Invalid OAuth state"))
		return
	}
	// state одноразовый
	delete(session.Values, oauthStateKey)
	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	code := r.URL.Query().Get("code")
	if code == "" {
		h.fail(w, r, apperr.Validationf("Missing authorization code"))
		return
	}
	gu, err := auth.FetchGoogleUser(r.Context(), h.Config, code)
	if err != nil {
		h.Log.Warn("google exchange failed", zap.Error(err))
		h.fail(w, r, &apperr.Error{Kind: apperr.Unauthenticated, Message: "Google authentication failed", Err: err})
		return
	}
	tok, u, err := h.Svc.Auth.GoogleLogin(r.Context(), gu)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Log.Info("google login", zap.Uint("user_id", u.ID))
	WriteJSON(w, http.StatusOK, tok)
}
