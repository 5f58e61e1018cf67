package auth

import (
	"context"
	"errors"
	"time"
)

const defaultAccessTTL = 30 * time.Minute

type Service struct {
	credentials *Credentials
	tokens      *TokenService
	limiter     *LoginRateLimiter
	accessTTL   time.Duration
}

func NewService(credentials *Credentials, tokens *TokenService, limiter *LoginRateLimiter) *Service {
	return &Service{
		credentials: credentials,
		tokens:      tokens,
		limiter:     limiter,
		accessTTL:   defaultAccessTTL,
	}
}

func (s *Service) WithAccessTTL(accessTTL time.Duration) {
	if accessTTL > 0 {
		s.accessTTL = accessTTL
	}
}

func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// Login checks the rate limiter before the credentials, so a locked-out
// address is refused even with the right password.
func (s *Service) Login(ctx context.Context, username, password, address string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	if !s.limiter.Allow(address) {
		return Session{}, ErrLoginLocked{Lockout: s.limiter.LockoutDuration()}
	}

	if !s.credentials.Verify(username, password) {
		s.limiter.RecordFailure(address)
		return Session{}, ErrInvalidCredentials
	}

	s.limiter.Reset(address)

	token, expiresAt, err := s.tokens.Issue(username, s.accessTTL)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Subject:   username,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

var ErrInvalidCredentials = errors.New("invalid credentials")

type ErrLoginLocked struct {
	Lockout time.Duration
}

func (e ErrLoginLocked) Error() string {
	return "login temporarily locked"
}
