package services

import (
	"context"
	"strings"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/auth"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
)

const msgBadCredentials = "Incorrect email or password"

type Token struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	TelegramID string
}

type ProfileInput struct {
	Name       *string
	About      *string
	Location   *string
	AvatarURL  *string
	TelegramID *string
}

type AuthService struct {
	users  *storage.UserRepo
	tokens *auth.TokenIssuer
}

func NewAuthService(users *storage.UserRepo, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register проверяет Telegram ID и уникальность до любой записи в БД.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.TelegramID = strings.TrimSpace(in.TelegramID)

	if in.TelegramID != "" {
		if err := auth.ValidateTelegramID(in.TelegramID); err != nil {
			return models.User{}, err
		}
	}
	if len(in.Password) < 8 {
		return models.User{}, apperr.ValidationFields("Password must be at least 8 characters long",
			map[string]string{"password": "min"})
	}

	taken, err := s.users.EmailTaken(ctx, in.Email)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, apperr.Conflictf("Email already registered")
	}
	if in.TelegramID != "" {
		taken, err := s.users.TelegramTaken(ctx, in.TelegramID, 0)
		if err != nil {
			return models.User{}, err
		}
		if taken {
			return models.User{}, apperr.Conflictf("Telegram ID already registered")
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		Email:          in.Email,
		HashedPassword: hash,
		Name:           strings.TrimSpace(in.Name),
		Role:           models.RoleStudent,
		IsActive:       true,
	}
	if in.TelegramID != "" {
		tg := in.TelegramID
		u.TelegramID = &tg
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Token, models.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.NotFound) {
		return Token{}, models.User{}, apperr.Unauthenticatedf(msgBadCredentials)
	}
	if err != nil {
		return Token{}, models.User{}, err
	}
	if !auth.CheckPassword(u.HashedPassword, password) {
		return Token{}, models.User{}, apperr.Unauthenticatedf(msgBadCredentials)
	}
	if !u.IsActive {
		return Token{}, models.User{}, apperr.Forbiddenf("Inactive user")
	}
	tok, err := s.issue(u)
	return tok, u, err
}

// GoogleLogin находит или создаёт пользователя по профилю Google и выдаёт токен.
func (s *AuthService) GoogleLogin(ctx context.Context, g auth.GoogleUser) (Token, models.User, error) {
	u, err := s.users.SaveGoogleUser(ctx, g.ID, g.Email, g.Name, g.Picture)
	if err != nil {
		return Token{}, models.User{}, err
	}
	if !u.IsActive {
		return Token{}, models.User{}, apperr.Forbiddenf("Inactive user")
	}
	tok, err := s.issue(u)
	return tok, u, err
}

func (s *AuthService) issue(u models.User) (Token, error) {
	raw, err := s.tokens.Issue(u.ID, u.IsAdmin)
	if err != nil {
		return Token{}, err
	}
	return Token{Token: raw, TokenType: "bearer"}, nil
}

// Authenticate проверяет токен и подгружает пользователя. Флаг админа
// берётся из БД, а не из токена: снятые права действуют сразу.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (models.User, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return models.User{}, &apperr.Error{Kind: apperr.Unauthenticated, Message: "Could not validate credentials", Err: err}
	}
	id, err := claims.UserID()
	if err != nil {
		return models.User{}, &apperr.Error{Kind: apperr.Unauthenticated, Message: "Could not validate credentials", Err: err}
	}
	u, err := s.users.GetByID(ctx, id)
	if apperr.Is(err, apperr.NotFound) {
		return models.User{}, &apperr.Error{Kind: apperr.Unauthenticated, Message: "Could not validate credentials", Err: err}
	}
	if err != nil {
		return models.User{}, err
	}
	if !u.IsActive {
		return models.User{}, apperr.Forbiddenf("Inactive user")
	}
	return u, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile: пустой telegram_id отвязывает Telegram.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (models.User, error) {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.About != nil {
		updates["about"] = *in.About
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.AvatarURL != nil {
		if !isHTTPURL(*in.AvatarURL) {
			return models.User{}, apperr.ValidationFields("Avatar URL must start with http:// or https://",
				map[string]string{"avatar_url": "url"})
		}
		updates["avatar_url"] = *in.AvatarURL
	}
	if in.TelegramID != nil {
		tg := strings.TrimSpace(*in.TelegramID)
		if tg == "" {
			updates["telegram_id"] = nil
		} else {
			if err := auth.ValidateTelegramID(tg); err != nil {
				return models.User{}, err
			}
			taken, err := s.users.TelegramTaken(ctx, tg, userID)
			if err != nil {
				return models.User{}, err
			}
			if taken {
				return models.User{}, apperr.Conflictf("Telegram ID already registered")
			}
			updates["telegram_id"] = tg
		}
	}
	if len(updates) == 0 {
		return s.users.GetByID(ctx, userID)
	}
	return s.users.Update(ctx, userID, updates)
}
