package inquiry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"union-site/internal/auth"
	"union-site/internal/clientip"
	"union-site/internal/observability"
)

const (
	maxFormBodyBytes = 64 << 10
	defaultPageSize  = 100
)

type Store interface {
	Create(ctx context.Context, input Input) (Inquiry, error)
	List(ctx context.Context, offset, limit int) ([]Inquiry, error)
	Delete(ctx context.Context, id string) error
	MarkResolved(ctx context.Context, id string) error
}

type Notifier interface {
	Notify(ctx context.Context, inq Inquiry) error
}

type Handler struct {
	store    Store
	notifier Notifier
	logger   *observability.Logger
}

func NewHandler(store Store, notifier Notifier, logger *observability.Logger) *Handler {
	return &Handler{store: store, notifier: notifier, logger: logger}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	input, err := Normalize(Input{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Subject: r.PostFormValue("subject"),
		Message: r.PostFormValue("message"),
	})
	if err != nil {
		var vErr ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}

	inq, err := h.store.Create(r.Context(), input)
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("contact_inquiry_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "An error occurred while processing your request. Please try again.")
		return
	}

	h.logger.Info("contact_inquiry", map[string]any{
		"id":      inq.ID,
		"name":    inq.Name,
		"email":   inq.Email,
		"subject": inq.Subject,
		"ip":      clientip.FromRequest(r),
	})

	message := "Thank you for your message! We'll get back to you soon."
	if h.sendNotification(r.Context(), inq) {
		message += " A confirmation email has been sent to your address."
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": inq.ID, "message": message})
}

func (h *Handler) sendNotification(ctx context.Context, inq Inquiry) bool {
	if h.notifier == nil {
		return false
	}

	if err := h.notifier.Notify(ctx, inq); err != nil {
		h.logger.Error("email_notification_failed", map[string]any{
			"recipient": inq.Email,
			"error":     err.Error(),
		})
		return false
	}

	h.logger.Info("email_notification_sent", map[string]any{"recipient": inq.Email})
	return true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}

	inquiries, err := h.store.List(r.Context(), offset, limit)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list inquiries")
		return
	}

	writeJSON(w, http.StatusOK, inquiries)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inquiry not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete inquiry")
		return
	}

	h.logAdminAction(r, "inquiry_deleted", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Inquiry deleted successfully"})
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.MarkResolved(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inquiry not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to resolve inquiry")
		return
	}

	h.logAdminAction(r, "inquiry_resolved", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Inquiry marked as resolved"})
}

func (h *Handler) logAdminAction(r *http.Request, action, id string) {
	username, _ := auth.UserFromContext(r.Context())
	h.logger.Info("admin_action", map[string]any{
		"action":   action,
		"id":       id,
		"username": username,
		"ip":       clientip.FromRequest(r),
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid inquiry id")
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
