package submission

import (
	"net/http"
	"strings"
)

// UnknownClient is the identifier used when no forwarded-IP header is
// present, e.g. local development behind no proxy.
const UnknownClient = "unknown"

// ClientIdentifier derives a stable rate-limit key for the request.
// The service always sits behind a proxy in production, so the first
// X-Forwarded-For hop is the client; X-Real-IP is the fallback.
func ClientIdentifier(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}
