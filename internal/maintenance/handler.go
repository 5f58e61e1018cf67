package maintenance

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"union-site/internal/observability"
)

// AttemptSweeper is satisfied by auth.LoginRateLimiter.
type AttemptSweeper interface {
	Sweep() int
}

type InquiryPurger interface {
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

type CleanupResult struct {
	SweptLoginAttempts int   `json:"swept_login_attempts"`
	DeletedInquiries   int64 `json:"deleted_inquiries"`
}

type CleanupHandler struct {
	attempts         AttemptSweeper
	inquiries        InquiryPurger
	logger           *observability.Logger
	cronSecret       string
	inquiryRetention time.Duration
	batchSize        int
	now              func() time.Time
}

func NewCleanupHandler(
	attempts AttemptSweeper,
	inquiries InquiryPurger,
	logger *observability.Logger,
	cronSecret string,
	inquiryRetention time.Duration,
	batchSize int,
) *CleanupHandler {
	if inquiryRetention <= 0 {
		inquiryRetention = 90 * 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	return &CleanupHandler{
		attempts:         attempts,
		inquiries:        inquiries,
		logger:           logger,
		cronSecret:       strings.TrimSpace(cronSecret),
		inquiryRetention: inquiryRetention,
		batchSize:        batchSize,
		now:              time.Now,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var result CleanupResult
	if h.attempts != nil {
		result.SweptLoginAttempts = h.attempts.Sweep()
	}

	if h.inquiries != nil {
		cutoff := h.now().UTC().Add(-h.inquiryRetention)
		deleted, err := h.inquiries.DeleteResolvedBefore(r.Context(), cutoff, h.batchSize)
		if err != nil {
			sentry.CaptureException(err)
			h.logger.Error("cleanup_failed", map[string]any{"error": err.Error()})
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
			return
		}
		result.DeletedInquiries = deleted
	}

	h.logger.Info("cleanup_completed", map[string]any{
		"swept_login_attempts": result.SweptLoginAttempts,
		"deleted_inquiries":    result.DeletedInquiries,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"result": result,
	})
}

func (h *CleanupHandler) authorized(r *http.Request) bool {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.cronSecret)) == 1
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
