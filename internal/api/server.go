package api

import (
	"net/http"
	"time"

	diagramapi "github.com/futig/diagram-backend/internal/api/diagram"
	"github.com/futig/diagram-backend/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(diagramHandler *diagramapi.Handler, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)   // Recover from panics
	r.Use(chimiddleware.RequestID)   // Add request ID
	r.Use(middleware.Logger(logger)) // Log requests
	// The pipeline deadline lives in the resilience layer; the router
	// timeout only guards against requests that never reach it.
	r.Use(chimiddleware.Timeout(requestTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Register routes
	diagramapi.RegisterRoutes(r, diagramHandler)

	return r
}
