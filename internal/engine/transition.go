// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package engine

import "github.com/tomtom215/kickwatch/internal/models"

// Transition is the action a check decides on.
type Transition int

const (
	// None means nothing to do.
	None Transition = iota
	// WentLive posts a new live notification.
	WentLive
	// Refresh edits the posted live notification with fresh data.
	Refresh
	// WentOffline edits or deletes the posted notification.
	WentOffline
)

// String returns the label used in logs and metrics.
func (t Transition) String() string {
	switch t {
	case WentLive:
		return "went_live"
	case Refresh:
		return "refresh"
	case WentOffline:
		return "went_offline"
	default:
		return "none"
	}
}

// Decide compares the stored record with freshly fetched status.
//
// A new non-empty session ID while the record is live counts as going live
// again. An empty session ID never does, so a channel whose API omits the
// ID is announced once per offline-to-live edge.
func Decide(rec *models.WatchRecord, info *models.StreamInfo, style models.EmbedStyle) Transition {
	switch {
	case info.IsLive && (!rec.IsLive || (info.SessionID != "" && info.SessionID != rec.LastSessionID)):
		return WentLive
	case !info.IsLive && rec.IsLive:
		return WentOffline
	case info.IsLive && rec.IsLive && style == models.EmbedStyleDetailed:
		return Refresh
	default:
		return None
	}
}
