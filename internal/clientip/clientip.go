package clientip

import (
	"net"
	"net/http"
	"strings"
)

const unknown = "unknown"

// FromRequest returns the first X-Forwarded-For entry, falling back to the
// peer host of the connection.
func FromRequest(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		first, _, _ := strings.Cut(xForwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return unknown
	}
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}

	return remote
}
