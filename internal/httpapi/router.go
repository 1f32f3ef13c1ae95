package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

type RouterConfig struct {
	// HypeRateLimit caps hype mutations per client IP per minute; 0 disables it.
	HypeRateLimit  int
	MetricsHandler http.Handler
}

func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(logger))

	r.Get("/healthz", h.Healthz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", h.Events)
		r.Post("/events", h.Events)
		r.Get("/events/ics", h.EventsICS)
		r.Get("/marathon", h.Marathon)
		r.Get("/sources", h.Sources)

		r.Route("/hype", func(r chi.Router) {
			r.Post("/counts", h.HypeCounts)

			r.Group(func(r chi.Router) {
				if cfg.HypeRateLimit > 0 {
					r.Use(httprate.LimitByIP(cfg.HypeRateLimit, time.Minute))
				}
				r.Post("/increment", h.HypeIncrement)
				r.Post("/decrement", h.HypeDecrement)
			})
		})
	})

	return r
}
