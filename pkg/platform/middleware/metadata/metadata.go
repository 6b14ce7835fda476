package metadata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"veridoc/pkg/requestcontext"
)

// ClientMetadata extracts the client IP address, User-Agent and a parsed
// device summary from the request and adds them to the context for use by
// handlers, services and the audit trail.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		rawUA := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, rawUA, DeviceSummary(rawUA))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceSummary condenses a User-Agent string into "Browser x.y on OS".
// Returns "unknown" for empty or unparseable agents.
func DeviceSummary(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	os := ua.OS()

	switch {
	case name == "" && os == "":
		return "unknown"
	case os == "":
		return fmt.Sprintf("%s %s", name, version)
	case name == "":
		return os
	default:
		return fmt.Sprintf("%s %s on %s", name, version, os)
	}
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// Check X-Forwarded-For header first (standard for proxied requests)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
		// Take the first IP which is the original client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header (used by nginx and other proxies)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr (direct connection)
	// RemoteAddr is in format "ip:port", so we need to strip the port
	if addr := r.RemoteAddr; addr != "" {
		// For IPv6, format is [::1]:port
		// For IPv4, format is 127.0.0.1:port
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
