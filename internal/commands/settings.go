// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/render"
)

// Toggle names a boolean scope setting.
type Toggle string

// Toggles accepted by SetToggle.
const (
	ToggleAutoDelete Toggle = "autodelete"
	ToggleViewers    Toggle = "viewers"
	ToggleCategory   Toggle = "category"
)

// Settings shows a scope's configuration.
func (s *Service) Settings(ctx context.Context, scopeID string) (*Reply, error) {
	scope, err := s.store.Get(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("load scope: %w", err)
	}
	return &Reply{Embed: render.SettingsCard(scope, s.now()), Data: scope.Settings}, nil
}

// SetChannel sets the scope's default delivery channel.
func (s *Service) SetChannel(ctx context.Context, scopeID, channelID string) (*Reply, error) {
	if _, err := s.store.UpdateSettings(ctx, scopeID, func(st *models.ScopeSettings) error {
		st.DefaultChannelID = channelID
		return nil
	}); err != nil {
		return nil, wrapStoreErr(err, "set channel")
	}
	return &Reply{Message: "✅ Global alert channel set to " + render.ChannelMention(channelID)}, nil
}

// SetInterval sets how often the scope's channels are checked.
func (s *Service) SetInterval(ctx context.Context, scopeID string, seconds int) (*Reply, error) {
	if seconds < models.MinCheckIntervalSeconds {
		return nil, fail(CodeInvalidInterval,
			fmt.Sprintf("❌ Minimum interval is **%d seconds** to avoid rate limits.", models.MinCheckIntervalSeconds))
	}
	if seconds > models.MaxCheckIntervalSeconds {
		return nil, fail(CodeInvalidInterval,
			fmt.Sprintf("❌ Maximum interval is **%d seconds** (10 minutes).", models.MaxCheckIntervalSeconds))
	}

	if _, err := s.store.UpdateSettings(ctx, scopeID, func(st *models.ScopeSettings) error {
		st.CheckIntervalSeconds = seconds
		return nil
	}); err != nil {
		return nil, wrapStoreErr(err, "set interval")
	}
	return &Reply{Message: fmt.Sprintf("✅ Check interval set to **%d seconds**.", seconds)}, nil
}

// SetStyle sets the embed style. Names are case-insensitive.
func (s *Service) SetStyle(ctx context.Context, scopeID, style string) (*Reply, error) {
	st := models.EmbedStyle(strings.ToLower(strings.TrimSpace(style)))
	if !st.Valid() {
		return nil, fail(CodeInvalidStyle, "❌ Style must be `detailed` or `minimal`.")
	}

	if _, err := s.store.UpdateSettings(ctx, scopeID, func(settings *models.ScopeSettings) error {
		settings.EmbedStyle = st
		return nil
	}); err != nil {
		return nil, wrapStoreErr(err, "set style")
	}
	return &Reply{Message: fmt.Sprintf("✅ Embed style set to **%s**.", st)}, nil
}

// SetToggle sets one of the boolean scope settings.
func (s *Service) SetToggle(ctx context.Context, scopeID string, toggle Toggle, enabled bool) (*Reply, error) {
	var apply func(*models.ScopeSettings)
	var message string

	switch toggle {
	case ToggleAutoDelete:
		apply = func(st *models.ScopeSettings) { st.AutoDeleteOnOffline = enabled }
		message = fmt.Sprintf("✅ Auto-delete on offline **%s**.", pick(enabled, "enabled", "disabled"))
	case ToggleViewers:
		apply = func(st *models.ScopeSettings) { st.ShowViewerCount = enabled }
		message = fmt.Sprintf("✅ Viewer count will be **%s** in embeds.", pick(enabled, "shown", "hidden"))
	case ToggleCategory:
		apply = func(st *models.ScopeSettings) { st.ShowCategory = enabled }
		message = fmt.Sprintf("✅ Category will be **%s** in embeds.", pick(enabled, "shown", "hidden"))
	default:
		return nil, fmt.Errorf("unknown toggle %q", toggle)
	}

	if _, err := s.store.UpdateSettings(ctx, scopeID, func(st *models.ScopeSettings) error {
		apply(st)
		return nil
	}); err != nil {
		return nil, wrapStoreErr(err, "set toggle")
	}
	return &Reply{Message: message}, nil
}

// ParseToggle validates a toggle name.
func ParseToggle(name string) (Toggle, bool) {
	switch t := Toggle(strings.ToLower(name)); t {
	case ToggleAutoDelete, ToggleViewers, ToggleCategory:
		return t, true
	default:
		return "", false
	}
}

func pick(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
