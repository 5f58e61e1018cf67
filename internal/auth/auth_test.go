package auth

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	testUsername = "admin"
	testPassword = "correct horse battery staple"
	testSecret   = "test-signing-secret"
)

// fakeClock starts on a whole second so JWT second precision does not shift
// expiry boundaries.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	hashOnce   sync.Once
	cachedHash string
)

func testPasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		cachedHash = string(hash)
	})
	return cachedHash
}

func newTestCredentials(t *testing.T) *Credentials {
	t.Helper()
	creds, err := NewCredentials(testUsername, testPasswordHash(t))
	if err != nil {
		t.Fatalf("NewCredentials() error = %v", err)
	}
	return creds
}

func newTestTokenService(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	tokens.now = clock.Now
	return tokens
}

func newTestLimiter(clock *fakeClock) *LoginRateLimiter {
	limiter := NewLoginRateLimiter(NewAttemptStore(), 5, 15*time.Minute)
	limiter.now = clock.Now
	return limiter
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	service := NewService(newTestCredentials(t), newTestTokenService(t, clock), newTestLimiter(clock))
	return service, clock
}
