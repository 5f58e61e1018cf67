package observability

import (
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestScrubSessionRemovesCredentials(t *testing.T) {
	event := &sentry.Event{
		Request: &sentry.Request{
			Cookies: "admin_token=abc",
			Data:    "username=admin&password=secret",
			Headers: map[string]string{
				"Cookie":        "admin_token=abc",
				"Authorization": "Bearer cron",
				"User-Agent":    "test",
			},
		},
	}

	got := scrubSession(event, nil)
	if got.Request.Cookies != "" || got.Request.Data != "" {
		t.Fatalf("cookies/data not scrubbed: %+v", got.Request)
	}
	if _, ok := got.Request.Headers["Cookie"]; ok {
		t.Error("Cookie header not scrubbed")
	}
	if _, ok := got.Request.Headers["Authorization"]; ok {
		t.Error("Authorization header not scrubbed")
	}
	if got.Request.Headers["User-Agent"] != "test" {
		t.Error("unrelated header was removed")
	}
}

func TestInitSentryWithoutDSNIsNoop(t *testing.T) {
	if err := InitSentry("", "test"); err != nil {
		t.Fatalf("InitSentry() error = %v", err)
	}
}
