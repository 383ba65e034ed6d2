package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/EV-Circuits/internal/middleware"
)

// SetupRoutes mounts the page, the map API and the refresh endpoint. Manual refreshes
// are limited to one per refreshInterval.
func SetupRoutes(svc *Service, refreshInterval time.Duration) http.Handler {
	r := chi.NewRouter()
	h := &Handlers{svc: svc}

	r.Get("/", h.Page)
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/map", h.Map)
		r.Get("/views", h.Views)
		r.Get("/comunas", h.Comunas)
		r.Get("/circuits/{circuit}", h.Circuit)

		r.With(middleware.RateLimitMiddleware(refreshInterval)).Post("/refresh", h.Refresh)
	})

	return r
}
