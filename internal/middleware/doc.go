// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

/*
Package middleware provides the HTTP middleware used by the admin API.

Every middleware has the func(http.Handler) http.Handler shape so it can be
passed to chi's r.Use directly.

Key Components:

  - RequestID: X-Request-ID propagation and logging context
  - PrometheusMetrics: request count and latency per chi route pattern
  - AccessLog: one zerolog line per request
  - BearerAuth: static admin token check

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)          // Layer 1: request tracking
	r.Use(chimiddleware.Recoverer)       // Layer 2: panic recovery
	r.Use(middleware.PrometheusMetrics)  // Layer 3: metrics
	r.Use(middleware.AccessLog)          // Layer 4: access log
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.BearerAuth(token, onDenied)) // Layer 5: auth
	})

Metrics are labelled with the route pattern ("/api/v1/scopes/{scope}") rather
than the raw path, which keeps label cardinality bounded by the route table.
*/
package middleware
