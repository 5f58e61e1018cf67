package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"union-site/internal/auth"
	"union-site/internal/mailer"
)

// ErrConfiguration marks startup configuration problems. The process must not
// serve traffic when LoadConfig returns it.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	DatabaseURL string
	AppEnv      string
	Port        string
	SentryDSN   string
	CronSecret  string

	SessionSecret     string
	AdminUsername     string
	AdminPasswordHash string
	AccessTTL         time.Duration
	LoginMaxAttempts  int
	LoginLockout      time.Duration

	LoginRequestMax      int
	LoginRequestWindow   time.Duration
	ContactRequestMax    int
	ContactRequestWindow time.Duration

	SMTP mailer.Config

	InquiryRetention time.Duration
	CleanupBatchSize int

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

func LoadConfig() (Config, error) {
	var cfg Config
	var err error

	if cfg.DatabaseURL, err = mustEnv("DATABASE_URL"); err != nil {
		return Config{}, err
	}
	if cfg.SessionSecret, err = mustEnv("SESSION_SECRET"); err != nil {
		return Config{}, err
	}
	if cfg.AdminUsername, err = mustEnv("ADMIN_USERNAME"); err != nil {
		return Config{}, err
	}
	if cfg.AdminPasswordHash, err = adminPasswordHash(); err != nil {
		return Config{}, err
	}

	cfg.AppEnv = envOrDefault("APP_ENV", "development")
	cfg.Port = envOrDefault("PORT", "8080")
	cfg.SentryDSN = strings.TrimSpace(os.Getenv("SENTRY_DSN"))
	cfg.CronSecret = strings.TrimSpace(os.Getenv("CRON_SECRET"))

	cfg.AccessTTL = envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 30)
	cfg.LoginMaxAttempts = envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5)
	cfg.LoginLockout = envMinutesOrDefault("LOGIN_LOCK_MINUTES", 15)

	cfg.LoginRequestMax = envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 30)
	cfg.LoginRequestWindow = envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60)
	cfg.ContactRequestMax = envIntOrDefault("CONTACT_RATE_LIMIT_MAX", 5)
	cfg.ContactRequestWindow = envSecondsOrDefault("CONTACT_RATE_LIMIT_WINDOW_SECONDS", 600)

	cfg.SMTP = mailer.Config{
		Host:       envOrDefault("SMTP_HOST", "smtp.gmail.com"),
		Port:       envIntOrDefault("SMTP_PORT", 587),
		Username:   strings.TrimSpace(os.Getenv("SMTP_EMAIL")),
		Password:   os.Getenv("SMTP_PASSWORD"),
		AdminEmail: strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		SiteName:   envOrDefault("SITE_NAME", "Programmers Union"),
	}

	cfg.InquiryRetention = envDaysOrDefault("INQUIRY_RETENTION_DAYS", 90)
	cfg.CleanupBatchSize = envIntOrDefault("CLEANUP_BATCH_SIZE", 500)

	cfg.DBMaxOpenConns = envIntOrDefault("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = envIntOrDefault("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	cfg.DBConnMaxIdleTime = envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10)

	return cfg, nil
}

// adminPasswordHash prefers a precomputed bcrypt hash and otherwise hashes
// the plaintext password once at startup.
func adminPasswordHash() (string, error) {
	if hash := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")); hash != "" {
		return hash, nil
	}

	plain := os.Getenv("ADMIN_PASSWORD")
	if strings.TrimSpace(plain) == "" {
		return "", fmt.Errorf("%w: missing required env: ADMIN_PASSWORD_HASH or ADMIN_PASSWORD", ErrConfiguration)
	}

	hash, err := auth.HashPassword(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return hash, nil
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("%w: missing required env: %s", ErrConfiguration, name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
