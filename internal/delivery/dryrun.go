// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package delivery

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/metrics"
	"github.com/tomtom215/kickwatch/internal/models"
)

// LogMessenger logs notifications instead of delivering them. Sends succeed
// with a random message ID.
type LogMessenger struct{}

// NewLogMessenger creates a dry-run messenger.
func NewLogMessenger() *LogMessenger {
	return &LogMessenger{}
}

// Send logs the notification.
func (m *LogMessenger) Send(ctx context.Context, channelID, content string, embed *models.Embed) Result {
	id := uuid.NewString()
	ev := logging.Ctx(ctx).Info().
		Str("operation", OpSend).
		Str("channel_id", channelID).
		Str("message_id", id).
		Str("content", content)
	if embed != nil {
		ev = ev.Str("embed_title", embed.Title).Str("embed_description", embed.Description)
	}
	ev.Msg("Dry run: notification not delivered")
	metrics.RecordDelivery(OpSend, OK.String())
	return Result{Outcome: OK, MessageID: id}
}

// FetchMessage always reports the message as present.
func (m *LogMessenger) FetchMessage(ctx context.Context, channelID, messageID string) Result {
	metrics.RecordDelivery(OpFetch, OK.String())
	return Result{Outcome: OK, MessageID: messageID}
}

// Edit logs the edit.
func (m *LogMessenger) Edit(ctx context.Context, channelID, messageID, content string, embed *models.Embed) Result {
	ev := logging.Ctx(ctx).Info().
		Str("operation", OpEdit).
		Str("channel_id", channelID).
		Str("message_id", messageID).
		Str("content", content)
	if embed != nil {
		ev = ev.Str("embed_title", embed.Title)
	}
	ev.Msg("Dry run: edit not delivered")
	metrics.RecordDelivery(OpEdit, OK.String())
	return Result{Outcome: OK, MessageID: messageID}
}

// Delete logs the deletion.
func (m *LogMessenger) Delete(ctx context.Context, channelID, messageID string) Result {
	logging.Ctx(ctx).Info().
		Str("operation", OpDelete).
		Str("channel_id", channelID).
		Str("message_id", messageID).
		Msg("Dry run: delete not delivered")
	metrics.RecordDelivery(OpDelete, OK.String())
	return Result{Outcome: OK, MessageID: messageID}
}

var (
	_ Messenger = (*DiscordClient)(nil)
	_ Messenger = (*LogMessenger)(nil)
)
