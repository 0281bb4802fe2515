// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package models

// StreamInfo is the normalized view of a Kick channel at fetch time.
// It is rebuilt on every fetch and never persisted.
//
// When IsLive is false, every live-only field (SessionID through Tags)
// holds its zero value.
type StreamInfo struct {
	IsLive      bool   `json:"is_live"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	ChannelURL  string `json:"channel_url"`
	Followers   int64  `json:"followers"`
	IsVerified  bool   `json:"is_verified"`
	BannerURL   string `json:"banner_url,omitempty"`

	// Live-only fields
	SessionID    string   `json:"session_id,omitempty"`
	Title        string   `json:"title,omitempty"`
	ViewerCount  int64    `json:"viewer_count"`
	Category     string   `json:"category,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	StartedAt    string   `json:"started_at,omitempty"`
	Language     string   `json:"language,omitempty"`
	IsMature     bool     `json:"is_mature"`
	Tags         []string `json:"tags,omitempty"`
}

// ClearLive resets every live-only field to its zero value and marks the
// stream offline.
func (s *StreamInfo) ClearLive() {
	s.IsLive = false
	s.SessionID = ""
	s.Title = ""
	s.ViewerCount = 0
	s.Category = ""
	s.ThumbnailURL = ""
	s.StartedAt = ""
	s.Language = ""
	s.IsMature = false
	s.Tags = nil
}
