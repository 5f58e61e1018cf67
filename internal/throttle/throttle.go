// Package throttle limits how often a single client may hit an endpoint.
package throttle

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"union-site/internal/clientip"
)

const defaultMaxKeys = 5000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle gives each key a token bucket holding maxHits requests that refills
// completely over window.
type Throttle struct {
	mu       sync.Mutex
	maxHits  int
	window   time.Duration
	limit    rate.Limit
	visitors map[string]*visitor
	maxKeys  int
	now      func() time.Time
}

func New(maxHits int, window time.Duration) *Throttle {
	if maxHits <= 0 {
		maxHits = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Throttle{
		maxHits:  maxHits,
		window:   window,
		limit:    rate.Every(window / time.Duration(maxHits)),
		visitors: make(map[string]*visitor),
		maxKeys:  defaultMaxKeys,
		now:      time.Now,
	}
}

func (t *Throttle) Middleware(message string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := t.Allow(clientip.FromRequest(r))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Allow takes a token for key when one is available. Otherwise it returns how
// long until the next token, rounded to whole seconds and at least one.
// A refused request does not consume a token.
func (t *Throttle) Allow(key string) (bool, time.Duration) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.maxHits)}
		t.visitors[key] = v
	}
	v.lastSeen = now

	reservation := v.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		retryAfter := delay.Round(time.Second)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter
	}

	if len(t.visitors) > t.maxKeys {
		t.evictLocked(now.Add(-t.window))
	}

	return true, 0
}

// evictLocked drops visitors idle for a full window; their buckets are full
// again, so forgetting them changes nothing.
func (t *Throttle) evictLocked(threshold time.Time) {
	for key, v := range t.visitors {
		if !v.lastSeen.After(threshold) {
			delete(t.visitors, key)
		}
	}
}
