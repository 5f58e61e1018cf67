package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/union")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "admin-password")
}

func TestLoadConfigRequiresMandatoryValues(t *testing.T) {
	for _, name := range []string{"DATABASE_URL", "SESSION_SECRET", "ADMIN_USERNAME"} {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(name, "  ")

			_, err := LoadConfig()
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("err = %v, want ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), name) {
				t.Errorf("err = %v, want it to name %s", err, name)
			}
		})
	}
}

func TestLoadConfigRequiresAdminPassword(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_PASSWORD", "")

	if _, err := LoadConfig(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestLoadConfigHashesPlaintextPassword(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte("admin-password")); err != nil {
		t.Fatalf("hash does not match plaintext: %v", err)
	}
}

func TestLoadConfigPrefersHash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$04$precomputedhashprecomputedhashprecomputedhashprecompu")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AdminPasswordHash != "$2a$04$precomputedhashprecomputedhashprecomputedhashprecompu" {
		t.Errorf("AdminPasswordHash = %q", cfg.AdminPasswordHash)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOGIN_MAX_ATTEMPTS", "")
	t.Setenv("LOGIN_LOCK_MINUTES", "not-a-number")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LoginMaxAttempts != 5 {
		t.Errorf("LoginMaxAttempts = %d, want 5", cfg.LoginMaxAttempts)
	}
	if cfg.LoginLockout != 15*time.Minute {
		t.Errorf("LoginLockout = %v, want 15m", cfg.LoginLockout)
	}
	if cfg.AccessTTL != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", cfg.AccessTTL)
	}
	if cfg.SMTP.Port != 587 || cfg.SMTP.Host != "smtp.gmail.com" {
		t.Errorf("SMTP = %+v", cfg.SMTP)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_LOCK_MINUTES", "60")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LoginMaxAttempts != 3 || cfg.LoginLockout != time.Hour || cfg.AccessTTL != 10*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestBuildFailsFastWithoutSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_SECRET", "")

	if _, err := Build(Options{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestEnvBoolOrDefault(t *testing.T) {
	t.Setenv("RUN_MIGRATIONS_ON_STARTUP", "yes")
	if !EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", false) {
		t.Error("yes should parse as true")
	}
	t.Setenv("RUN_MIGRATIONS_ON_STARTUP", "maybe")
	if EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", false) {
		t.Error("unknown value should use fallback")
	}
}
