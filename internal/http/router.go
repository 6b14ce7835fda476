// Package httpapi assembles the HTTP surface: middleware stack,
// verification routes, health and metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veridoc/internal/verification/handler"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/platform/middleware/metadata"
	"veridoc/pkg/platform/middleware/request"
	"veridoc/pkg/platform/middleware/requesttime"
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Config carries everything the router mounts.
type Config struct {
	Verification *handler.Handler
	AdminGuard   func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
	Logger       *slog.Logger
	HealthChecks map[string]HealthCheck
}

// NewRouter builds the complete route tree.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(request.ID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", healthHandler(cfg.Logger, cfg.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		if cfg.RateLimit != nil {
			api.Use(cfg.RateLimit)
		}
		cfg.Verification.Register(api, cfg.AdminGuard)
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler reports each dependency's probe result; any failure turns
// the overall status degraded with a 503.
func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		httputil.WriteJSON(w, status, resp)
	}
}
