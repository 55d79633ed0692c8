package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/imgrabba/internal/api/handler"
	mw "github.com/iconidentify/imgrabba/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured. When
// metricsHandler is nil the /metrics endpoint is not mounted.
func NewRouter(
	batchHandler *handler.BatchHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(middleware.Timeout(time.Minute))
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// API v1 (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey, logger))

		r.Get("/stats", healthHandler.Stats)

		r.Post("/batches", batchHandler.Submit)
		r.Get("/batches", batchHandler.List)
		r.Get("/batches/{batchID}", batchHandler.Get)
	})

	return r
}
