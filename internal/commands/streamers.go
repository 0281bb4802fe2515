// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/kickwatch/internal/kick"
	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/render"
)

// Add starts watching username. channelID overrides the scope default and
// may be empty when the scope has one.
func (s *Service) Add(ctx context.Context, scopeID, username, channelID string) (*Reply, error) {
	info, err := s.lookup(ctx, username, func(name string) string {
		return fmt.Sprintf("❌ Could not find a Kick.com channel named **%s**. Please check the spelling and try again.", name)
	})
	if err != nil {
		return nil, err
	}
	name := kick.NormalizeUsername(username)

	if channelID == "" {
		scope, err := s.store.Get(ctx, scopeID)
		if err != nil {
			return nil, fmt.Errorf("load scope: %w", err)
		}
		if scope.Settings.DefaultChannelID == "" {
			return nil, fail(CodeNoChannel,
				"❌ No channel specified and no global channel set.\nEither provide a channel or set a global one first.")
		}
	}

	_, err = s.store.UpdateStreamers(ctx, scopeID, func(m map[string]models.WatchRecord) error {
		if _, exists := m[name]; exists {
			return fail(CodeAlreadyMonitored, fmt.Sprintf("⚠️ **%s** is already being monitored!", info.DisplayName))
		}
		m[name] = models.WatchRecord{
			DeliveryChannelID: channelID,
			IsLive:            info.IsLive,
			LastSessionID:     info.SessionID,
			AddedAt:           s.now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "add streamer")
	}

	logging.Ctx(ctx).Info().
		Str("scope", scopeID).
		Str("username", name).
		Bool("is_live", info.IsLive).
		Msg("Streamer added")
	return &Reply{Embed: render.AddedCard(info, channelID), Data: info}, nil
}

// Remove stops watching username.
func (s *Service) Remove(ctx context.Context, scopeID, username string) (*Reply, error) {
	name := kick.NormalizeUsername(username)
	_, err := s.store.UpdateStreamers(ctx, scopeID, func(m map[string]models.WatchRecord) error {
		if _, ok := m[name]; !ok {
			return notMonitored(name)
		}
		delete(m, name)
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "remove streamer")
	}
	logging.Ctx(ctx).Info().Str("scope", scopeID).Str("username", name).Msg("Streamer removed")
	return &Reply{Message: fmt.Sprintf("✅ Removed **%s** from Kick alerts.", name)}, nil
}

// List shows every watched channel of a scope.
func (s *Service) List(ctx context.Context, scopeID string) (*Reply, error) {
	scope, err := s.store.Get(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("load scope: %w", err)
	}
	if !scope.HasStreamers() {
		return &Reply{
			Message: "📭 No Kick.com streamers are being monitored.\nAdd one with `kickalert add <username>`",
			Data:    scope.Streamers,
		}, nil
	}
	return &Reply{Embed: render.ListCard(scope, s.channelBase, s.now()), Data: scope.Streamers}, nil
}

// SetRole sets the ping role of one watched channel, or the scope-wide
// default when username is empty.
func (s *Service) SetRole(ctx context.Context, scopeID, roleID, username string) (*Reply, error) {
	if username == "" {
		if _, err := s.store.UpdateSettings(ctx, scopeID, func(st *models.ScopeSettings) error {
			st.DefaultPingRoleID = roleID
			return nil
		}); err != nil {
			return nil, wrapStoreErr(err, "set role")
		}
		return &Reply{Message: "✅ Global ping role set to " + render.RoleMention(roleID)}, nil
	}

	name, err := s.updateRecord(ctx, scopeID, username, func(r *models.WatchRecord) {
		r.PingRoleID = roleID
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Message: fmt.Sprintf("✅ Ping role for **%s** set to %s", name, render.RoleMention(roleID))}, nil
}

// RemoveRole clears the ping role of one watched channel, or the scope-wide
// default when username is empty.
func (s *Service) RemoveRole(ctx context.Context, scopeID, username string) (*Reply, error) {
	if username == "" {
		if _, err := s.store.UpdateSettings(ctx, scopeID, func(st *models.ScopeSettings) error {
			st.DefaultPingRoleID = ""
			return nil
		}); err != nil {
			return nil, wrapStoreErr(err, "remove role")
		}
		return &Reply{Message: "✅ Global ping role removed."}, nil
	}

	name, err := s.updateRecord(ctx, scopeID, username, func(r *models.WatchRecord) {
		r.PingRoleID = ""
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Message: fmt.Sprintf("✅ Ping role removed for **%s**.", name)}, nil
}

// SetMessage sets the announcement template of a watched channel. An empty
// message clears it.
func (s *Service) SetMessage(ctx context.Context, scopeID, username, message string) (*Reply, error) {
	name, err := s.updateRecord(ctx, scopeID, username, func(r *models.WatchRecord) {
		r.CustomMessage = message
	})
	if err != nil {
		return nil, err
	}
	if message == "" {
		return &Reply{Message: fmt.Sprintf("✅ Custom message for **%s** cleared.", name)}, nil
	}
	return &Reply{Message: fmt.Sprintf("✅ Custom message for **%s** set to:\n%s", name, message)}, nil
}

// SetDeleteOnOffline overrides the scope's auto-delete setting for one
// channel. A nil value removes the override.
func (s *Service) SetDeleteOnOffline(ctx context.Context, scopeID, username string, enabled *bool) (*Reply, error) {
	name, err := s.updateRecord(ctx, scopeID, username, func(r *models.WatchRecord) {
		if enabled == nil {
			r.DeleteOnOffline = nil
			return
		}
		v := *enabled
		r.DeleteOnOffline = &v
	})
	if err != nil {
		return nil, err
	}

	switch {
	case enabled == nil:
		return &Reply{Message: fmt.Sprintf("✅ **%s** now follows the server auto-delete setting.", name)}, nil
	case *enabled:
		return &Reply{Message: fmt.Sprintf("✅ Announcements for **%s** will be **deleted** when the stream ends.", name)}, nil
	default:
		return &Reply{Message: fmt.Sprintf("✅ Announcements for **%s** will be **edited** when the stream ends.", name)}, nil
	}
}

// updateRecord applies fn to an existing record and returns the normalized
// username.
func (s *Service) updateRecord(ctx context.Context, scopeID, username string, fn func(*models.WatchRecord)) (string, error) {
	name := kick.NormalizeUsername(username)
	_, err := s.store.UpdateStreamers(ctx, scopeID, func(m map[string]models.WatchRecord) error {
		r, ok := m[name]
		if !ok {
			return notMonitored(name)
		}
		fn(&r)
		m[name] = r
		return nil
	})
	if err != nil {
		return name, wrapStoreErr(err, "update streamer")
	}
	return name, nil
}

// wrapStoreErr passes command errors through and wraps everything else.
func wrapStoreErr(err error, op string) error {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	return fmt.Errorf("%s: %w", op, err)
}
