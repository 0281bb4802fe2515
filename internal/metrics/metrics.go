// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Kick API fetches (result, latency)
// - Transition engine decisions
// - Discord delivery outcomes
// - Scheduler cycles
// - Admin API requests
// - Circuit breaker state

var (
	// Kick API Metrics
	KickFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwatch_kick_fetch_total",
			Help: "Total number of Kick channel fetches by result",
		},
		[]string{"result"}, // ok, not_found, transient, rejected
	)

	KickFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kickwatch_kick_fetch_duration_seconds",
			Help:    "Duration of Kick channel fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)

	// Transition Engine Metrics
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwatch_transitions_total",
			Help: "Total number of transitions decided per check",
		},
		[]string{"transition"}, // none, went_live, refresh, went_offline
	)

	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwatch_checks_total",
			Help: "Total number of per-channel checks by outcome",
		},
		[]string{"outcome"}, // ok, skipped, error
	)

	LiveChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kickwatch_live_channels",
			Help: "Number of watched channels live at the end of the last cycle",
		},
	)

	// Delivery Metrics
	DeliveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwatch_delivery_total",
			Help: "Total number of Discord delivery operations by outcome",
		},
		[]string{"operation", "outcome"}, // operation: send, fetch, edit, delete
	)

	// Scheduler Metrics
	SchedulerCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwatch_scheduler_cycles_total",
			Help: "Total number of scheduler cycles by result",
		},
		[]string{"result"}, // ok, error
	)

	SchedulerCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kickwatch_scheduler_cycle_duration_seconds",
			Help:    "Wall time spent checking all scopes in one cycle",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	SchedulerNextSleep = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kickwatch_scheduler_next_sleep_seconds",
			Help: "Sleep chosen after the last cycle",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwatch_api_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kickwatch_api_request_duration_seconds",
			Help:    "Admin API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordKickFetch records one Kick API fetch.
func RecordKickFetch(result string, duration time.Duration) {
	KickFetchTotal.WithLabelValues(result).Inc()
	KickFetchDuration.Observe(duration.Seconds())
}

// RecordTransition counts a decided transition.
func RecordTransition(transition string) {
	TransitionsTotal.WithLabelValues(transition).Inc()
}

// RecordCheck counts a finished per-channel check.
func RecordCheck(outcome string) {
	ChecksTotal.WithLabelValues(outcome).Inc()
}

// RecordDelivery counts a delivery operation.
func RecordDelivery(operation, outcome string) {
	DeliveryTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordSchedulerCycle records a completed scheduler cycle and the sleep that follows it.
func RecordSchedulerCycle(duration, nextSleep time.Duration, live int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SchedulerCycles.WithLabelValues(result).Inc()
	SchedulerCycleDuration.Observe(duration.Seconds())
	SchedulerNextSleep.Set(nextSleep.Seconds())
	if err == nil {
		LiveChannels.Set(float64(live))
	}
}

// RecordAPIRequest records an admin API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
