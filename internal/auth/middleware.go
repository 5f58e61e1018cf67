package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const SessionCookieName = "admin_token"

var ErrUnauthenticated = errors.New("not authenticated")

type contextKey struct{}

type SessionGuard struct {
	tokens *TokenService
}

func NewSessionGuard(tokens *TokenService) *SessionGuard {
	return &SessionGuard{tokens: tokens}
}

// Authorize returns the subject of the session cookie carried by r.
func (g *SessionGuard) Authorize(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", ErrUnauthenticated
	}

	tokenStr := strings.TrimSpace(cookie.Value)
	if tokenStr == "" {
		return "", ErrUnauthenticated
	}

	subject, err := g.tokens.Verify(tokenStr)
	if err != nil {
		return "", ErrUnauthenticated
	}

	return subject, nil
}

func (g *SessionGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := g.Authorize(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, subject)))
	})
}

func UserFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(contextKey{}).(string)
	return subject, ok && subject != ""
}
