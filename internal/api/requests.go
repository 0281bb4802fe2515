// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package api

// Request bodies. Range checks that carry operator-facing messages (interval
// bounds, style names) are left to the command layer.

type usernameParam struct {
	Username string `json:"username" validate:"required,kickname"`
}

type addStreamerRequest struct {
	Username  string `json:"username" validate:"required,kickname"`
	ChannelID string `json:"channel_id" validate:"omitempty,snowflake"`
}

type channelRequest struct {
	ChannelID string `json:"channel_id" validate:"required,snowflake"`
}

type roleRequest struct {
	RoleID string `json:"role_id" validate:"required,snowflake"`
}

type intervalRequest struct {
	Seconds *int `json:"seconds" validate:"required"`
}

type styleRequest struct {
	Style string `json:"style" validate:"required"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// deleteOnOfflineRequest leaves Enabled nil to follow the scope setting.
type deleteOnOfflineRequest struct {
	Enabled *bool `json:"enabled"`
}

// messageRequest clears the template when Message is empty. Discord caps
// message content at 2000 characters.
type messageRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type testRequest struct {
	ChannelID string `json:"channel_id" validate:"omitempty,snowflake"`
}
