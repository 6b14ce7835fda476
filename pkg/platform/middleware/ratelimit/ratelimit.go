// Package ratelimit provides a per-client sliding window limiter for the
// public submission endpoints.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// Result reports the outcome of one limiter check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Limiter tracks request timestamps per key over a sliding window. The
// sliding window avoids the burst-at-boundary problem of fixed windows.
// In-memory only: each replica enforces its own limit.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	limit   int
	window  time.Duration
}

type slidingWindow struct {
	timestamps []time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		buckets: make(map[string]*slidingWindow),
		limit:   limit,
		window:  window,
	}
}

// Allow checks and records one request for the key.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	sw := l.buckets[key]
	if sw == nil {
		sw = &slidingWindow{}
		l.buckets[key] = sw
	}
	sw.cleanup(now, l.window)

	if len(sw.timestamps) >= l.limit {
		return Result{
			Allowed: false,
			Limit:   l.limit,
			ResetAt: sw.timestamps[0].Add(l.window),
		}
	}

	sw.timestamps = append(sw.timestamps, now)
	return Result{
		Allowed:   true,
		Remaining: l.limit - len(sw.timestamps),
		Limit:     l.limit,
		ResetAt:   sw.timestamps[0].Add(l.window),
	}
}

// Reset clears the window for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (sw *slidingWindow) cleanup(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// Middleware limits requests per client IP. Must run after the client
// metadata middleware so the resolved IP is on the context.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := requestcontext.ClientIP(r.Context())
		if key == "" {
			key = remoteIP(r)
		}

		result := l.Allow(key)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
