// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

/*
Package models defines the data structures shared across Kickwatch.

Key Components:

  - StreamInfo: normalized Kick channel status, rebuilt on every fetch
  - WatchRecord: persisted per-channel state (liveness, session, posted message)
  - ScopeSettings: per-guild configuration (default channel, interval, style, toggles)
  - Scope: a guild's settings together with its watched channels
  - Embed: Discord message payloads produced by the renderer

Persisted models use the guild configuration document field names
(channel_id, last_stream_id, check_interval, ...).
*/
package models
