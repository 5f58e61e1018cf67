package auth

import (
	"sync"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 15 * time.Minute
)

// AttemptStore is the in-memory map of source address to AttemptRecord. A
// single LoginRateLimiter owns it; the mutex guards every access.
type AttemptStore struct {
	mu      sync.Mutex
	records map[string]AttemptRecord
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{records: make(map[string]AttemptRecord)}
}

func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *AttemptStore) Get(address string) (AttemptRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[address]
	return record, ok
}

// LoginRateLimiter locks an address out once it reaches maxAttempts failed
// logins. The lockout lasts until no failure has been seen for the lockout
// window, so failures during a lockout extend it.
type LoginRateLimiter struct {
	store       *AttemptStore
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

func NewLoginRateLimiter(store *AttemptStore, maxAttempts int, lockout time.Duration) *LoginRateLimiter {
	if store == nil {
		store = NewAttemptStore()
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = defaultLockWindow
	}

	return &LoginRateLimiter{
		store:       store,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

func (l *LoginRateLimiter) LockoutDuration() time.Duration {
	return l.lockout
}

func (l *LoginRateLimiter) MaxAttempts() int {
	return l.maxAttempts
}

// Allow evicts every expired record, then reports whether address may
// attempt a login.
func (l *LoginRateLimiter) Allow(address string) bool {
	now := l.now()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	l.sweepLocked(now)

	record, ok := l.store.records[address]
	if !ok {
		return true
	}
	return record.FailedCount < l.maxAttempts
}

// RecordFailure counts a failed login for address and returns the new count.
func (l *LoginRateLimiter) RecordFailure(address string) int {
	now := l.now()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	record := l.store.records[address]
	record.FailedCount++
	record.LastAttempt = now
	l.store.records[address] = record

	return record.FailedCount
}

func (l *LoginRateLimiter) Reset(address string) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	delete(l.store.records, address)
}

// Sweep removes records whose last failure is older than the lockout window
// and returns how many were removed.
func (l *LoginRateLimiter) Sweep() int {
	now := l.now()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	return l.sweepLocked(now)
}

func (l *LoginRateLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for address, record := range l.store.records {
		if now.Sub(record.LastAttempt) >= l.lockout {
			delete(l.store.records, address)
			removed++
		}
	}
	return removed
}
