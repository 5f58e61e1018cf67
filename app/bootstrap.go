package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"union-site/internal/auth"
	"union-site/internal/db"
	"union-site/internal/inquiry"
	"union-site/internal/mailer"
	"union-site/internal/maintenance"
	"union-site/internal/observability"
	"union-site/internal/throttle"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Config  Config
	Handler http.Handler
	Close   func() error
}

type router struct {
	auth            *auth.Handler
	guard           *auth.SessionGuard
	inquiries       *inquiry.Handler
	cleanup         *maintenance.CleanupHandler
	health          http.HandlerFunc
	loginThrottle   *throttle.Throttle
	contactThrottle *throttle.Throttle
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	credentials, err := auth.NewCredentials(cfg.AdminUsername, cfg.AdminPasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		applied, err := db.RunMigrations(context.Background(), database)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations_applied", map[string]any{"versions": applied})
		}
	}

	limiter := auth.NewLoginRateLimiter(auth.NewAttemptStore(), cfg.LoginMaxAttempts, cfg.LoginLockout)
	authService := auth.NewService(credentials, tokens, limiter)
	authService.WithAccessTTL(cfg.AccessTTL)

	notifier := mailer.NewSMTPNotifier(cfg.SMTP)
	if !notifier.Configured() {
		logger.Info("smtp_not_configured", map[string]any{"host": cfg.SMTP.Host})
	}

	inquiryRepo := inquiry.NewRepository(database)

	handler := newRouter(router{
		auth:      auth.NewHandler(authService, logger),
		guard:     auth.NewSessionGuard(tokens),
		inquiries: inquiry.NewHandler(inquiryRepo, notifier, logger),
		cleanup: maintenance.NewCleanupHandler(
			limiter,
			inquiryRepo,
			logger,
			cfg.CronSecret,
			cfg.InquiryRetention,
			cfg.CleanupBatchSize,
		),
		health:          healthHandler(database),
		loginThrottle:   throttle.New(cfg.LoginRequestMax, cfg.LoginRequestWindow),
		contactThrottle: throttle.New(cfg.ContactRequestMax, cfg.ContactRequestWindow),
	}, logger)

	return &Runtime{
		Config:  cfg,
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func newRouter(rt router, logger *observability.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /admin/login", rt.loginThrottle.Middleware("too many login requests", http.HandlerFunc(rt.auth.Login)))
	mux.Handle("POST /admin/logout", rt.guard.Middleware(http.HandlerFunc(rt.auth.Logout)))
	mux.Handle("GET /admin/dashboard", rt.guard.Middleware(http.HandlerFunc(rt.inquiries.List)))
	mux.Handle("DELETE /admin/inquiry/{id}", rt.guard.Middleware(http.HandlerFunc(rt.inquiries.Delete)))
	mux.Handle("POST /admin/inquiry/{id}/resolve", rt.guard.Middleware(http.HandlerFunc(rt.inquiries.Resolve)))
	mux.Handle("POST /contact", rt.contactThrottle.Middleware("too many contact requests", http.HandlerFunc(rt.inquiries.Submit)))
	mux.HandleFunc("GET /internal/maintenance/cleanup", rt.cleanup.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", rt.cleanup.Handle)
	mux.HandleFunc("GET /health", rt.health)

	return observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			observability.SecurityHeadersMiddleware(mux)))
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func healthHandler(database pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
