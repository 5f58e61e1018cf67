package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
		BeforeSend:       scrubSession,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// scrubSession drops cookies and credentials so session tokens never leave
// the process.
func scrubSession(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}

	event.Request.Cookies = ""
	event.Request.Data = ""
	for name := range event.Request.Headers {
		switch name {
		case "Cookie", "Authorization":
			delete(event.Request.Headers, name)
		}
	}

	return event
}
