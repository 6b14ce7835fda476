// Package request provides request ID middleware.
// Every request gets a UUID that is echoed in the X-Request-ID response
// header and threaded through logs and audit events.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"veridoc/pkg/requestcontext"
)

const headerRequestID = "X-Request-ID"

// ID assigns a request ID to each request, honoring an inbound
// X-Request-ID header from trusted proxies.
func ID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(headerRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
