// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/kickwatch/internal/scheduler"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string           `json:"status"`
	Uptime    float64          `json:"uptime_seconds"`
	Scheduler *scheduler.Stats `json:"scheduler,omitempty"`
	Upstream  string           `json:"upstream_breaker,omitempty"`
}

// health is "degraded" when the scheduler is not running, its last cycle
// failed, or the upstream breaker is open.
func (h *Handler) health() HealthStatus {
	hs := HealthStatus{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Seconds(),
	}
	if h.scheduler != nil {
		stats := h.scheduler.Stats()
		hs.Scheduler = &stats
		if !stats.Running || stats.LastError != "" {
			hs.Status = "degraded"
		}
	}
	if h.upstream != nil {
		hs.Upstream = h.upstream.BreakerState()
		if hs.Upstream == "open" {
			hs.Status = "degraded"
		}
	}
	return hs
}

// Health handles GET /health. It always answers 200; see Status for detail.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.health())
}

// HealthLive handles GET /health/live. Returns 200 if the process is alive,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready. Returns 503 until the scheduler is
// running.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.scheduler == nil || h.scheduler.Stats().Running

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).Status(statusCode, map[string]interface{}{
		"ready": ready,
	})
}
