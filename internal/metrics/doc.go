// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

/*
Package metrics exposes Prometheus instrumentation for Kickwatch.

Metrics are registered with the default registry through promauto and served
in text format at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

  - kickwatch_kick_fetch_total{result}, kickwatch_kick_fetch_duration_seconds
  - kickwatch_transitions_total{transition}, kickwatch_checks_total{outcome}
  - kickwatch_delivery_total{operation,outcome}
  - kickwatch_scheduler_cycles_total{result}, kickwatch_scheduler_cycle_duration_seconds,
    kickwatch_scheduler_next_sleep_seconds, kickwatch_live_channels
  - kickwatch_api_requests_total{method,endpoint,status}, kickwatch_api_request_duration_seconds
  - circuit_breaker_* for the Kick API breaker
*/
package metrics
