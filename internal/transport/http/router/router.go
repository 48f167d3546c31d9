package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contentpulse/engagement-service/internal/config"
	"github.com/contentpulse/engagement-service/internal/transport/http/handlers"
	appmw "github.com/contentpulse/engagement-service/internal/transport/http/middleware"
)

func New(
	h *handlers.EngagementHandler,
	z *handlers.HealthHandler,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(appmw.RequestID)
	r.Use(appmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(appmw.AccessLog)

	// Coarse per-IP ceiling at the edge; the admission gate applies the
	// per-metric buckets behind it.
	if cfg.RLEnabled {
		r.Use(httprate.Limit(
			cfg.RLLimit,
			cfg.RLWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Get("/healthz", z.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/engage/v1", func(r chi.Router) {
		r.Post("/interactions", h.RecordInteraction)
		r.Get("/counts", h.GetCounts)
		r.Get("/stats", h.GetStats)
		r.Get("/snapshots/{key}", h.GetSnapshot)
	})

	return r
}
