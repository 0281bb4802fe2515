// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package render turns normalized Kick channel status into Discord message
// payloads. Every function is pure: the current time is always passed in.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tomtom215/kickwatch/internal/models"
)

// Embed colours.
const (
	ColorKick    = 0x53FC18
	ColorOffline = 0x808080
)

// FaviconURL is shown next to the live footer.
const FaviconURL = "https://kick.com/favicon.ico"

// MaxTags is the number of tags shown on a detailed embed.
const MaxTags = 5

// Options controls how a live embed is rendered.
type Options struct {
	Style        models.EmbedStyle
	ShowViewers  bool
	ShowCategory bool
	Now          time.Time
}

// DefaultOptions renders a detailed embed with every optional line.
func DefaultOptions(now time.Time) Options {
	return Options{
		Style:        models.EmbedStyleDetailed,
		ShowViewers:  true,
		ShowCategory: true,
		Now:          now,
	}
}

// OptionsFor builds Options from scope settings.
func OptionsFor(s *models.ScopeSettings, now time.Time) Options {
	return Options{
		Style:        s.EmbedStyle,
		ShowViewers:  s.ShowViewerCount,
		ShowCategory: s.ShowCategory,
		Now:          now,
	}
}

// Live builds the live notification embed.
func Live(info *models.StreamInfo, opts Options) *models.Embed {
	badge := ""
	if info.IsVerified {
		badge = " ✔️"
	}

	title := info.Title
	if title == "" {
		title = "No Title"
	}

	e := &models.Embed{
		Title:     title,
		URL:       info.ChannelURL,
		Color:     ColorKick,
		Timestamp: timestamp(opts.Now),
		Author: &models.EmbedAuthor{
			Name:    fmt.Sprintf("🔴 %s%s is LIVE on Kick!", info.DisplayName, badge),
			URL:     info.ChannelURL,
			IconURL: info.AvatarURL,
		},
		Footer: &models.EmbedFooter{
			Text:    "Kick.com • Live Stream Alert",
			IconURL: FaviconURL,
		},
	}

	if opts.Style == models.EmbedStyleMinimal {
		e.Description = minimalDescription(info, opts)
	} else {
		e.Description = detailedDescription(info, opts)
	}

	switch {
	case info.ThumbnailURL != "":
		thumb := info.ThumbnailURL
		if !strings.Contains(thumb, "?") {
			thumb += "?t=" + strconv.FormatInt(opts.Now.Unix(), 10)
		}
		e.Image = &models.EmbedMedia{URL: thumb}
	case info.AvatarURL != "":
		e.Thumbnail = &models.EmbedMedia{URL: info.AvatarURL}
	}

	return e
}

func detailedDescription(info *models.StreamInfo, opts Options) string {
	var lines []string

	if opts.ShowCategory && info.Category != "" {
		lines = append(lines, "🎮 **Category:** "+info.Category)
	}
	if opts.ShowViewers {
		lines = append(lines, "👁️ **Viewers:** "+FormatCount(info.ViewerCount))
	}
	if started, ok := ParseStartedAt(info.StartedAt); ok {
		lines = append(lines, fmt.Sprintf("🕐 **Started:** <t:%d:R>", started.Unix()))
	}
	if len(info.Tags) > 0 {
		tags := info.Tags
		if len(tags) > MaxTags {
			tags = tags[:MaxTags]
		}
		quoted := make([]string, len(tags))
		for i, t := range tags {
			quoted[i] = "`" + t + "`"
		}
		lines = append(lines, "🏷️ **Tags:** "+strings.Join(quoted, " "))
	}
	if info.IsMature {
		lines = append(lines, "🔞 **Mature Content**")
	}
	lines = append(lines, fmt.Sprintf("\n**[Watch Stream on Kick ↗](%s)**", info.ChannelURL))

	return strings.Join(lines, "\n")
}

func minimalDescription(info *models.StreamInfo, opts Options) string {
	var parts []string
	if opts.ShowCategory && info.Category != "" {
		parts = append(parts, "Playing **"+info.Category+"**")
	}
	if opts.ShowViewers {
		parts = append(parts, "👁️ "+FormatCount(info.ViewerCount)+" viewers")
	}

	link := fmt.Sprintf("**[Watch Now ↗](%s)**", info.ChannelURL)
	if len(parts) == 0 {
		return link
	}
	return strings.Join(parts, " • ") + "\n" + link
}

// Offline builds the embed a live notification is edited into.
func Offline(info *models.StreamInfo, now time.Time) *models.Embed {
	return &models.Embed{
		Description: fmt.Sprintf("**%s** has gone offline.\n[Visit Channel ↗](%s)", info.DisplayName, info.ChannelURL),
		Color:       ColorOffline,
		Timestamp:   timestamp(now),
		Author: &models.EmbedAuthor{
			Name:    fmt.Sprintf("⚫ %s is now Offline", info.DisplayName),
			URL:     info.ChannelURL,
			IconURL: info.AvatarURL,
		},
		Footer: &models.EmbedFooter{Text: "Kick.com • Stream Ended"},
	}
}

// ApplyTemplate substitutes the supported placeholders in tpl in a single
// pass. Placeholders inside substituted values are kept literally and
// unknown tokens are left untouched.
func ApplyTemplate(tpl string, info *models.StreamInfo) string {
	game := info.Category
	if game == "" {
		game = "Unknown"
	}
	title := info.Title
	if title == "" {
		title = "No Title"
	}

	r := strings.NewReplacer(
		"{streamer}", info.DisplayName,
		"{game}", game,
		"{title}", title,
		"{url}", info.ChannelURL,
		"{viewers}", strconv.FormatInt(info.ViewerCount, 10),
	)
	return r.Replace(tpl)
}

// Content builds the plain-text part of a live notification: the role mention
// and the applied template, joined by a newline. It returns "" when neither
// is set.
func Content(roleID, template string, info *models.StreamInfo) string {
	var parts []string
	if roleID != "" {
		parts = append(parts, RoleMention(roleID))
	}
	if template != "" {
		parts = append(parts, ApplyTemplate(template, info))
	}
	return strings.Join(parts, "\n")
}

// RoleMention formats a role ping.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

// ChannelMention formats a channel reference.
func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}

// FormatCount renders n with thousands separators (1234 -> "1,234").
func FormatCount(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

var startedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseStartedAt parses a stream start timestamp as reported by Kick. Values
// without a zone are UTC. The second result is false when nothing matched.
func ParseStartedAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range startedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}
