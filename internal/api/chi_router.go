// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/middleware"
)

// NewRouter builds the admin API router.
func NewRouter(h *Handler, cfg *config.ServerConfig) http.Handler {
	mw := NewChiMiddleware(ChiMiddlewareConfigFrom(cfg))
	token := ""
	if cfg != nil {
		token = cfg.AdminToken
	}

	r := chi.NewRouter()

	// Applied to all routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
	r.Use(mw.CORS()) // must be global to answer OPTIONS preflight
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Route("/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.BearerAuth(token, func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Unauthorized("Missing or invalid admin token")
		}))

		r.Get("/kick/{username}", h.CheckChannel)

		r.Route("/scopes/{scope}", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Delete("/", h.ClearScope)

			r.Put("/channel", h.SetChannel)
			r.Put("/role", h.SetScopeRole)
			r.Delete("/role", h.RemoveScopeRole)
			r.Put("/interval", h.SetInterval)
			r.Put("/style", h.SetStyle)
			r.Post("/toggles/{toggle}", h.SetToggle)
			r.With(mw.RateLimitForce()).Post("/force", h.Force)

			r.Get("/streamers", h.ListStreamers)
			r.Post("/streamers", h.AddStreamer)
			r.Route("/streamers/{username}", func(r chi.Router) {
				r.Delete("/", h.RemoveStreamer)
				r.Put("/role", h.SetStreamerRole)
				r.Delete("/role", h.RemoveStreamerRole)
				r.Put("/message", h.SetMessage)
				r.Put("/delete-on-offline", h.SetDeleteOnOffline)
				r.Post("/test", h.TestAnnouncement)
			})
		})
	})

	return r
}
