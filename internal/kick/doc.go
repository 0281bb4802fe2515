// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

/*
Package kick is the client for Kick.com's public channel endpoint.

	GET {base}/api/v2/channels/{username}

Fetch returns a normalized models.StreamInfo, ErrNotFound for a 404, or a
*TransientError for everything that may work on the next cycle (other status
codes, timeouts, network faults, malformed bodies, open circuit breaker).

Resilience:
  - 15s ceiling per request through one shared connection pool, reopened
    lazily after Close
  - client-side pacing with golang.org/x/time/rate
  - sony/gobreaker circuit breaker; 404s do not count as failures

ParseChannel isolates all schema variability. The payload is decoded into a
generic document and every field is read through typed accessors that treat
a wrong-typed value as absent, so partial or reshaped payloads degrade to
documented defaults instead of failing the fetch.
*/
package kick
