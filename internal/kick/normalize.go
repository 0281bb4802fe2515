// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package kick

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kickwatch/internal/models"
)

// Defaults substituted when the payload omits a field.
const (
	unknownName     = "Unknown"
	defaultTitle    = "No Title"
	defaultLanguage = "en"
)

var errNotObject = errors.New("payload is not a JSON object")

// NormalizeUsername trims whitespace and surrounding slashes and lower-cases
// the result, so "  /Nova/ " and "nova" address the same channel.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(username), "/"))
}

// ParseChannel converts a /api/v2/channels/{slug} response body into a
// StreamInfo. Fields of an unexpected JSON type are treated as absent; only a
// body that is not a JSON object is an error.
func ParseChannel(body []byte, channelBase string) (*models.StreamInfo, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	data := asObject(raw)
	if data == nil {
		return nil, errNotObject
	}
	return normalize(data, channelBase), nil
}

func normalize(data object, channelBase string) *models.StreamInfo {
	user := data.obj("user")
	slug := data.str("slug")

	info := &models.StreamInfo{
		Username:    firstNonEmpty(slug, user.str("username"), unknownName),
		DisplayName: firstNonEmpty(user.str("username"), slug, unknownName),
		AvatarURL:   user.str("profile_pic"),
		ChannelURL:  strings.TrimRight(channelBase, "/") + "/" + slug,
		Followers:   data.integer("followersCount"),
		IsVerified:  data.boolean("verified"),
		BannerURL:   data.obj("banner_image").str("url"),
	}

	live := data.obj("livestream")
	if live == nil || !live.boolean("is_live") {
		info.ClearLive()
		return info
	}

	info.IsLive = true
	info.SessionID = identifier(live["id"])
	info.Title = live.strOr("session_title", defaultTitle)
	info.ViewerCount = live.integer("viewer_count")
	info.Category = category(live)
	info.ThumbnailURL = thumbnail(live["thumbnail"])
	info.StartedAt = live.str("created_at")
	info.Language = live.strOr("language", defaultLanguage)
	info.IsMature = live.boolean("is_mature")
	info.Tags = tags(live.list("tags"))
	return info
}

// category prefers categories[0].name, then category.name.
func category(live object) string {
	if cats := live.list("categories"); len(cats) > 0 {
		return firstNonEmpty(asObject(cats[0]).str("name"), unknownName)
	}
	if c := live.obj("category"); c != nil {
		return firstNonEmpty(c.str("name"), unknownName)
	}
	return unknownName
}

// thumbnail accepts {"url": "..."} or a bare URL string.
func thumbnail(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return object(t).str("url")
	}
	return ""
}

func tags(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		var name string
		switch t := item.(type) {
		case string:
			name = t
		case map[string]interface{}:
			name = object(t).str("name")
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// identifier renders a session id without float formatting artefacts.
func identifier(v interface{}) string {
	switch id := v.(type) {
	case json.Number:
		return id.String()
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}

// object is a decoded JSON object with lenient typed accessors.
type object map[string]interface{}

func asObject(v interface{}) object {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return m
}

func (o object) obj(key string) object {
	return asObject(o[key])
}

func (o object) str(key string) string {
	s, _ := o[key].(string)
	return s
}

func (o object) strOr(key, fallback string) string {
	return firstNonEmpty(o.str(key), fallback)
}

func (o object) boolean(key string) bool {
	b, _ := o[key].(bool)
	return b
}

func (o object) list(key string) []interface{} {
	l, _ := o[key].([]interface{})
	return l
}

func (o object) integer(key string) int64 {
	switch n := o[key].(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(n)
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
