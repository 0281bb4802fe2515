// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package delivery posts, edits and deletes Kick notifications in Discord.
//
// Every Messenger operation returns a Result instead of an error: permission
// problems, vanished messages and HTTP failures are expected outcomes that
// callers branch on, not exceptional conditions. Implementations:
//   - DiscordClient: Discord REST v10 with a bot token
//   - LogMessenger: dry-run mode, logs every payload and fabricates IDs
//
// Calls are never retried here; a failed delivery is reported once and the
// caller decides what state to keep.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/kickwatch/internal/models"
)

// Outcome classifies a delivery attempt.
type Outcome int

const (
	// OK means the operation succeeded.
	OK Outcome = iota
	// PermissionDenied means the bot may not post or manage messages there.
	PermissionDenied
	// NotFound means the channel or message does not exist.
	NotFound
	// Failed covers every other failure (rate limits, 5xx, network faults).
	Failed
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case PermissionDenied:
		return "permission_denied"
	case NotFound:
		return "not_found"
	default:
		return "error"
	}
}

// Operation names used in logs and metrics.
const (
	OpSend   = "send"
	OpFetch  = "fetch"
	OpEdit   = "edit"
	OpDelete = "delete"
)

// Result is the outcome of a single Messenger call.
type Result struct {
	Outcome Outcome

	// MessageID is set by a successful Send or FetchMessage.
	MessageID string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	// RetryAfter is the server's back-off hint on 429 responses.
	RetryAfter time.Duration

	// Err carries detail for any non-OK outcome.
	Err error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Outcome == OK
}

// AsError returns an error describing a non-OK result, or nil.
func (r Result) AsError() error {
	if r.Outcome == OK {
		return nil
	}
	if r.Err != nil {
		return fmt.Errorf("%s: %w", r.Outcome, r.Err)
	}
	return errors.New(r.Outcome.String())
}

// Messenger is the delivery contract the transition engine and command
// surface depend on.
type Messenger interface {
	// Send posts content and embed to a channel and returns the new message ID.
	Send(ctx context.Context, channelID, content string, embed *models.Embed) Result

	// FetchMessage confirms a message still exists.
	FetchMessage(ctx context.Context, channelID, messageID string) Result

	// Edit replaces the content and embed of a message. Empty content clears it.
	Edit(ctx context.Context, channelID, messageID, content string, embed *models.Embed) Result

	// Delete removes a message.
	Delete(ctx context.Context, channelID, messageID string) Result
}

// ErrMissingChannel is reported when a call carries no channel ID.
var ErrMissingChannel = errors.New("channel id is required")

// ErrMissingMessage is reported when a call carries no message ID.
var ErrMissingMessage = errors.New("message id is required")

// ErrNoMessageID is reported when Discord accepts a Send but the response
// carries no message ID.
var ErrNoMessageID = errors.New("send response carried no message id")
