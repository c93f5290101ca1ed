package diagram

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers diagram pipeline routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/diagrams", h.Generate)
		r.Post("/diagrams/retry", h.RetryLast)
		r.Get("/cache/stats", h.CacheStats)
		r.Delete("/cache", h.ClearCache)
	})
}
