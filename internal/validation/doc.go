// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package validation validates admin API request bodies with
// go-playground/validator v10.
//
// A single validator instance is shared by all callers; it caches struct
// metadata and is safe for concurrent use. Two custom tags are registered:
//
//   - snowflake: a Discord channel, role or guild ID (17-20 digits)
//   - kickname: a Kick.com channel slug, tolerating surrounding spaces and slashes
//
// Field names in messages use the json tag of the field, so errors read the
// same as the request body:
//
//	type addStreamerRequest struct {
//	    Username  string `json:"username" validate:"required,kickname"`
//	    ChannelID string `json:"channel_id" validate:"omitempty,snowflake"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    rw.ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
