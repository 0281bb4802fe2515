// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package models

import (
	"fmt"
	"time"
)

// EmbedStyle selects how live notifications are rendered.
type EmbedStyle string

const (
	// EmbedStyleDetailed renders category, viewers, start time, tags and is
	// refreshed every cycle while the stream stays live.
	EmbedStyleDetailed EmbedStyle = "detailed"

	// EmbedStyleMinimal renders a single summary line and is never refreshed.
	EmbedStyleMinimal EmbedStyle = "minimal"
)

// Valid reports whether s is a known style.
func (s EmbedStyle) Valid() bool {
	return s == EmbedStyleDetailed || s == EmbedStyleMinimal
}

// Check interval bounds in seconds.
const (
	MinCheckIntervalSeconds     = 30
	MaxCheckIntervalSeconds     = 600
	DefaultCheckIntervalSeconds = 60
)

// WatchRecord is the persisted state of one watched Kick channel within a scope.
type WatchRecord struct {
	// DeliveryChannelID overrides the scope default channel when set.
	DeliveryChannelID string `json:"channel_id,omitempty"`

	// PingRoleID overrides the scope default ping role when set.
	PingRoleID string `json:"ping_role_id,omitempty"`

	// CustomMessage supports {streamer}, {game}, {title}, {url} and {viewers}.
	CustomMessage string `json:"custom_message,omitempty"`

	// DeleteOnOffline is nil when the scope's AutoDeleteOnOffline applies.
	DeleteOnOffline *bool `json:"delete_after_offline,omitempty"`

	// LastMessageID identifies the live notification currently posted.
	LastMessageID string `json:"last_message_id,omitempty"`

	// LastMessageChannelID is the channel LastMessageID was posted in.
	LastMessageChannelID string `json:"last_message_channel_id,omitempty"`

	IsLive        bool      `json:"is_live"`
	LastSessionID string    `json:"last_stream_id,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// ShouldDelete resolves the effective delete-on-offline flag.
func (r *WatchRecord) ShouldDelete(scopeDefault bool) bool {
	if r.DeleteOnOffline != nil {
		return *r.DeleteOnOffline
	}
	return scopeDefault
}

// ScopeSettings holds the per-scope (guild) configuration.
type ScopeSettings struct {
	DefaultChannelID     string     `json:"global_channel_id,omitempty"`
	DefaultPingRoleID    string     `json:"global_ping_role_id,omitempty"`
	CheckIntervalSeconds int        `json:"check_interval"`
	EmbedStyle           EmbedStyle `json:"embed_style"`
	ShowViewerCount      bool       `json:"show_viewer_count"`
	ShowCategory         bool       `json:"show_category"`
	AutoDeleteOnOffline  bool       `json:"auto_delete"`
}

// DefaultScopeSettings returns the settings a scope starts with.
func DefaultScopeSettings() ScopeSettings {
	return ScopeSettings{
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
		EmbedStyle:           EmbedStyleDetailed,
		ShowViewerCount:      true,
		ShowCategory:         true,
	}
}

// Normalize fills zero values left by older or partial documents.
func (s *ScopeSettings) Normalize() {
	if s.CheckIntervalSeconds == 0 {
		s.CheckIntervalSeconds = DefaultCheckIntervalSeconds
	}
	if !s.EmbedStyle.Valid() {
		s.EmbedStyle = EmbedStyleDetailed
	}
}

// Validate checks the settings against their allowed ranges.
func (s *ScopeSettings) Validate() error {
	if s.CheckIntervalSeconds < MinCheckIntervalSeconds || s.CheckIntervalSeconds > MaxCheckIntervalSeconds {
		return fmt.Errorf("check interval %ds outside [%d,%d]", s.CheckIntervalSeconds, MinCheckIntervalSeconds, MaxCheckIntervalSeconds)
	}
	if !s.EmbedStyle.Valid() {
		return fmt.Errorf("unknown embed style %q", s.EmbedStyle)
	}
	return nil
}

// CheckInterval returns the configured interval as a duration.
func (s *ScopeSettings) CheckInterval() time.Duration {
	return time.Duration(s.CheckIntervalSeconds) * time.Second
}

// Scope is one isolated configuration namespace and its watched channels.
type Scope struct {
	ID        string                 `json:"id"`
	Settings  ScopeSettings          `json:"settings"`
	Streamers map[string]WatchRecord `json:"streamers"`
}

// NewScope returns an empty scope with default settings.
func NewScope(id string) *Scope {
	return &Scope{
		ID:        id,
		Settings:  DefaultScopeSettings(),
		Streamers: make(map[string]WatchRecord),
	}
}

// HasStreamers reports whether the scope watches at least one channel.
func (s *Scope) HasStreamers() bool {
	return len(s.Streamers) > 0
}

// Clone returns a deep copy.
func (s *Scope) Clone() *Scope {
	out := &Scope{
		ID:        s.ID,
		Settings:  s.Settings,
		Streamers: make(map[string]WatchRecord, len(s.Streamers)),
	}
	for k, v := range s.Streamers {
		out.Streamers[k] = v.clone()
	}
	return out
}

func (r WatchRecord) clone() WatchRecord {
	if r.DeleteOnOffline != nil {
		v := *r.DeleteOnOffline
		r.DeleteOnOffline = &v
	}
	return r
}

// CloneStreamers deep-copies a streamer map.
func CloneStreamers(in map[string]WatchRecord) map[string]WatchRecord {
	out := make(map[string]WatchRecord, len(in))
	for k, v := range in {
		out[k] = v.clone()
	}
	return out
}
