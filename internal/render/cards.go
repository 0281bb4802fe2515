// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/kickwatch/internal/models"
)

// Test preview mock values used when the channel is offline.
const (
	PreviewTitle    = "🔴 Test Stream — This is a Preview!"
	PreviewViewers  = 1234
	PreviewCategory = "Just Chatting"
	PreviewContent  = "📧 **Test Announcement:**"
)

// PreviewTags are the mock tags of a test preview.
var PreviewTags = []string{"English", "Test"}

// Status renders the current status of a channel: the full live embed when
// live, an offline card with follower count otherwise.
func Status(info *models.StreamInfo, now time.Time) *models.Embed {
	if info.IsLive {
		return Live(info, DefaultOptions(now))
	}

	e := &models.Embed{
		Title: fmt.Sprintf("⚫ %s is Offline", info.DisplayName),
		URL:   info.ChannelURL,
		Description: fmt.Sprintf("**%s** is currently not streaming.\n\n👥 **Followers:** %s\n🔗 [Visit Channel](%s)",
			info.DisplayName, FormatCount(info.Followers), info.ChannelURL),
		Color:  ColorOffline,
		Footer: &models.EmbedFooter{Text: "Kick.com"},
	}
	if info.AvatarURL != "" {
		e.Thumbnail = &models.EmbedMedia{URL: info.AvatarURL}
	}
	return e
}

// PreviewInfo returns a copy of info suitable for a test announcement. An
// offline channel is filled with mock live data.
func PreviewInfo(info *models.StreamInfo, now time.Time) *models.StreamInfo {
	out := *info
	out.Tags = append([]string(nil), info.Tags...)
	if out.IsLive {
		return &out
	}

	out.IsLive = true
	if out.Title == "" {
		out.Title = PreviewTitle
	}
	if out.ViewerCount == 0 {
		out.ViewerCount = PreviewViewers
	}
	if out.Category == "" {
		out.Category = PreviewCategory
	}
	out.StartedAt = now.UTC().Format(time.RFC3339)
	if len(out.Tags) == 0 {
		out.Tags = append([]string(nil), PreviewTags...)
	}
	return &out
}

// TestPreview renders the live embed a test announcement carries.
func TestPreview(info *models.StreamInfo, opts Options) *models.Embed {
	return Live(PreviewInfo(info, opts.Now), opts)
}

// AddedCard confirms that a channel is now monitored. channelID is the
// per-channel override; "" renders as the global channel.
func AddedCard(info *models.StreamInfo, channelID string) *models.Embed {
	where := "Global channel"
	if channelID != "" {
		where = ChannelMention(channelID)
	}
	status := "⚫ Offline"
	if info.IsLive {
		status = "🔴 Currently LIVE"
	}

	e := &models.Embed{
		Title: "✅ Streamer Added",
		Description: fmt.Sprintf("Now monitoring **[%s](%s)** on Kick.com\n\n📺 **Channel:** %s\n📊 **Status:** %s\n👥 **Followers:** %s",
			info.DisplayName, info.ChannelURL, where, status, FormatCount(info.Followers)),
		Color: ColorKick,
	}
	if info.AvatarURL != "" {
		e.Thumbnail = &models.EmbedMedia{URL: info.AvatarURL}
	}
	return e
}

// ListCard summarizes every watched channel of a scope, sorted by username.
// channelBase builds profile links.
func ListCard(scope *models.Scope, channelBase string, now time.Time) *models.Embed {
	names := make([]string, 0, len(scope.Streamers))
	for name := range scope.Streamers {
		names = append(names, name)
	}
	sort.Strings(names)

	e := &models.Embed{
		Title:     "📋 Monitored Kick.com Streamers",
		Color:     ColorKick,
		Timestamp: timestamp(now),
		Footer:    &models.EmbedFooter{Text: fmt.Sprintf("%d streamer(s) monitored", len(names))},
	}

	base := strings.TrimRight(channelBase, "/")
	for _, name := range names {
		rec := scope.Streamers[name]

		channel := "Not set"
		if id := firstNonEmpty(rec.DeliveryChannelID, scope.Settings.DefaultChannelID); id != "" {
			channel = ChannelMention(id)
		}
		ping := "None"
		if rec.PingRoleID != "" {
			ping = RoleMention(rec.PingRoleID)
		}
		status := "⚫ Offline"
		if rec.IsLive {
			status = "🔴 LIVE"
		}

		e.Fields = append(e.Fields, models.EmbedField{
			Name:   status + " " + name,
			Value:  fmt.Sprintf("📺 Channel: %s\n🔔 Ping: %s\n🔗 [Kick Profile](%s/%s)", channel, ping, base, name),
			Inline: true,
		})
	}
	return e
}

// SettingsCard shows a scope's configuration.
func SettingsCard(scope *models.Scope, now time.Time) *models.Embed {
	s := scope.Settings

	channel := "Not set"
	if s.DefaultChannelID != "" {
		channel = ChannelMention(s.DefaultChannelID)
	}
	role := "None"
	if s.DefaultPingRoleID != "" {
		role = RoleMention(s.DefaultPingRoleID)
	}
	style := string(s.EmbedStyle)
	if style != "" {
		style = strings.ToUpper(style[:1]) + style[1:]
	}

	return &models.Embed{
		Title:     "⚙️ Kickwatch Settings",
		Color:     ColorKick,
		Timestamp: timestamp(now),
		Fields: []models.EmbedField{
			{Name: "📺 Global Channel", Value: channel, Inline: true},
			{Name: "🔔 Global Ping Role", Value: role, Inline: true},
			{Name: "📊 Monitored Streamers", Value: strconv.Itoa(len(scope.Streamers)), Inline: true},
			{Name: "⏱️ Check Interval", Value: fmt.Sprintf("%ds", s.CheckIntervalSeconds), Inline: true},
			{Name: "🎨 Embed Style", Value: style, Inline: true},
			{Name: "🗑️ Auto-Delete on Offline", Value: yesNo(s.AutoDeleteOnOffline), Inline: true},
			{Name: "👁️ Show Viewers", Value: yesNo(s.ShowViewerCount), Inline: true},
			{Name: "🎮 Show Category", Value: yesNo(s.ShowCategory), Inline: true},
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
