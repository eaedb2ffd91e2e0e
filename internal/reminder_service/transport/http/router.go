package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bondtrack/golang_services/internal/reminder_service/middleware"
)

// NewRouter builds the service's HTTP surface. /healthz and /metrics are
// public; everything under /api/v1 needs a bearer token.
func NewRouter(h *ReminderHandler, jwtSecret []byte, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.JWTAuthMiddleware(jwtSecret, logger))
		h.RegisterRoutes(v1, middleware.RequireAdmin(logger))
	})
	return r
}
