package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"union-site/internal/clientip"
	"union-site/internal/observability"
)

const (
	maxFormBodyBytes = 1 << 16

	DashboardPath = "/admin/dashboard"
	LoginPagePath = "/admin"
)

type Handler struct {
	service *Service
	logger  *observability.Logger
}

func NewHandler(service *Service, logger *observability.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ip := clientip.FromRequest(r)
	session, err := h.service.Login(r.Context(), username, password, ip)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.Warn("security_event", map[string]any{
				"event":    "failed_login_attempt",
				"username": username,
				"ip":       ip,
			})
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		var lockedErr ErrLoginLocked
		if errors.As(err, &lockedErr) {
			h.logger.Warn("security_event", map[string]any{
				"event":    "rate_limit_triggered",
				"username": username,
				"ip":       ip,
			})
			retryAfter := int(lockedErr.Lockout.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf(
				"too many failed login attempts, try again in %d minutes", int(lockedErr.Lockout.Minutes()),
			))
			return
		}

		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("admin_action", map[string]any{
		"action":   "successful_login",
		"username": session.Subject,
		"ip":       ip,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.service.AccessTTL().Seconds()),
	})
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}

// Logout only clears the client cookie; the token itself stays valid until it
// expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	username, _ := UserFromContext(r.Context())
	h.logger.Info("admin_action", map[string]any{
		"action":   "logout",
		"username": username,
		"ip":       clientip.FromRequest(r),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	http.Redirect(w, r, LoginPagePath, http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
