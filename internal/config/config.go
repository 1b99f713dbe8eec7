package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string
	Release  string

	DBDriver      string
	DatabaseURL   string
	DBAutoMigrate bool
	DBMigrate     bool
	DBTimeout     time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitMaxKeys  int

	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int

	TelegramToken string
	SentryDSN     string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	SessionKey         string

	CORSOrigins []string

	ReminderInterval time.Duration
	ReminderLead     time.Duration
}

// GoogleEnabled сообщает, настроен ли вход через Google.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "test"
}

func defaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RELEASE", "dev")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_AUTOMIGRATE", true)
	v.SetDefault("DB_MIGRATE", false)
	v.SetDefault("DB_TIMEOUT", 5*time.Second)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 30*time.Minute)

	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("RATE_LIMIT_MAX_KEYS", 10000)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("CACHE_MAX_ENTRIES", 1000)

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("SENTRY_DSN", "")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "")
	v.SetDefault("SESSION_KEY", "")

	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("REMINDER_INTERVAL", time.Minute)
	v.SetDefault("REMINDER_LEAD", 30*time.Minute)
}

// Load читает .env (если есть) и переменные окружения.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.AutomaticEnv()
	return v
}

// FromViper собирает Config из уже настроенного viper (удобно для тестов).
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Env:      strings.ToLower(v.GetString("ENV")),
		HTTPAddr: v.GetString("HTTP_ADDR"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Release:  v.GetString("RELEASE"),

		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBAutoMigrate: v.GetBool("DB_AUTOMIGRATE"),
		DBMigrate:     v.GetBool("DB_MIGRATE"),
		DBTimeout:     v.GetDuration("DB_TIMEOUT"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),
		RateLimitMaxKeys:  v.GetInt("RATE_LIMIT_MAX_KEYS"),

		RedisURL:        v.GetString("REDIS_URL"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		CacheMaxEntries: v.GetInt("CACHE_MAX_ENTRIES"),

		TelegramToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		SentryDSN:     v.GetString("SENTRY_DSN"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		SessionKey:         v.GetString("SESSION_KEY"),

		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),

		ReminderInterval: v.GetDuration("REMINDER_INTERVAL"),
		ReminderLead:     v.GetDuration("REMINDER_LEAD"),
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "mysql":
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required")
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "file:edu.db"
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("config: JWT_SECRET is required")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	if c.SessionKey == "" {
		c.SessionKey = c.JWTSecret
	}
	if c.RateLimitRequests <= 0 {
		return errors.New("config: RATE_LIMIT_REQUESTS must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("config: RATE_LIMIT_WINDOW must be positive")
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
