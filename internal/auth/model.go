package auth

import "time"

type Session struct {
	Subject   string    `json:"subject"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttemptRecord is the failed-login state kept for one source address.
type AttemptRecord struct {
	FailedCount int
	LastAttempt time.Time
}
