// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package commands implements the operator command surface: adding and
// removing watched channels, per-scope settings, status checks and test
// announcements.
//
// Every command returns a Reply with the operator-facing text (and an embed
// where one is shown) or an *Error whose Code names the failed precondition.
// State changes go through the store's atomic updates only, so commands may
// run concurrently with the scheduler.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/kickwatch/internal/delivery"
	"github.com/tomtom215/kickwatch/internal/kick"
	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/render"
	"github.com/tomtom215/kickwatch/internal/scheduler"
	"github.com/tomtom215/kickwatch/internal/store"
)

// Reply is the result of a successful command.
type Reply struct {
	Message string        `json:"message,omitempty"`
	Embed   *models.Embed `json:"embed,omitempty"`
	Data    any           `json:"data,omitempty"`
}

// Forcer runs an immediate check of one scope.
type Forcer interface {
	ForceCheck(ctx context.Context, scopeID string) (scheduler.ForceReport, error)
}

// Service executes operator commands.
type Service struct {
	store       store.Store
	fetcher     kick.Fetcher
	messenger   delivery.Messenger
	forcer      Forcer
	channelBase string
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithChannelBase sets the base URL used for profile links in listings.
func WithChannelBase(base string) Option {
	return func(s *Service) { s.channelBase = strings.TrimRight(base, "/") }
}

// NewService creates a command service.
func NewService(st store.Store, fetcher kick.Fetcher, messenger delivery.Messenger, forcer Forcer, opts ...Option) *Service {
	s := &Service{
		store:       st,
		fetcher:     fetcher,
		messenger:   messenger,
		forcer:      forcer,
		channelBase: "https://kick.com",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup fetches a channel for a command. missing formats the not-found
// message from the normalized username.
func (s *Service) lookup(ctx context.Context, username string, missing func(string) string) (*models.StreamInfo, error) {
	name := kick.NormalizeUsername(username)
	if name == "" {
		return nil, &Error{Code: CodeInvalidUsername, Message: "❌ Please provide a Kick.com username.", Err: kick.ErrInvalidUsername}
	}

	info, err := s.fetcher.Fetch(ctx, name)
	switch {
	case err == nil:
		return info, nil
	case errors.Is(err, kick.ErrNotFound):
		return nil, &Error{Code: CodeNotFound, Message: missing(name), Err: err}
	case errors.Is(err, kick.ErrInvalidUsername):
		return nil, &Error{Code: CodeInvalidUsername, Message: "❌ Please provide a Kick.com username.", Err: err}
	default:
		logging.Ctx(ctx).Warn().Err(err).Str("username", name).Msg("Kick lookup failed")
		return nil, &Error{
			Code:    CodeUpstreamUnavailable,
			Message: "❌ Kick.com is not responding right now. Please try again later.",
			Err:     err,
		}
	}
}

func notFoundShort(name string) string {
	return fmt.Sprintf("❌ Could not find Kick.com channel **%s**.", name)
}

func notMonitored(name string) *Error {
	return fail(CodeNotMonitored, fmt.Sprintf("❌ **%s** is not being monitored.", name))
}

// Check shows the current status of any Kick channel.
func (s *Service) Check(ctx context.Context, username string) (*Reply, error) {
	info, err := s.lookup(ctx, username, notFoundShort)
	if err != nil {
		return nil, err
	}
	return &Reply{Embed: render.Status(info, s.now()), Data: info}, nil
}

// Test sends a preview announcement for username to channelID. An empty
// channelID falls back to the channel the streamer (or the scope) posts to.
// Offline channels are previewed with mock stream data.
func (s *Service) Test(ctx context.Context, scopeID, username, channelID string) (*Reply, error) {
	info, err := s.lookup(ctx, username, notFoundShort)
	if err != nil {
		return nil, err
	}

	scope, err := s.store.Get(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("load scope: %w", err)
	}
	if channelID == "" {
		rec := scope.Streamers[kick.NormalizeUsername(username)]
		channelID = firstNonEmpty(rec.DeliveryChannelID, scope.Settings.DefaultChannelID)
	}
	if channelID == "" {
		return nil, fail(CodeNoChannel, "❌ No channel specified and no global channel set.")
	}

	now := s.now()
	embed := render.TestPreview(info, render.OptionsFor(&scope.Settings, now))

	sent := s.messenger.Send(ctx, channelID, render.PreviewContent, embed)
	if !sent.OK() {
		return nil, &Error{
			Code:    CodeDeliveryFailed,
			Message: fmt.Sprintf("❌ Could not send the test announcement to %s (%s).", render.ChannelMention(channelID), sent.Outcome),
			Err:     sent.AsError(),
		}
	}

	return &Reply{
		Message: render.PreviewContent,
		Embed:   embed,
		Data:    map[string]string{"channel_id": channelID, "message_id": sent.MessageID},
	}, nil
}

// Force checks every channel of a scope right away.
func (s *Service) Force(ctx context.Context, scopeID string) (*Reply, error) {
	report, err := s.forcer.ForceCheck(ctx, scopeID)
	if errors.Is(err, scheduler.ErrNothingToCheck) {
		return &Reply{Message: "📭 No streamers to check.", Data: report}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("force check: %w", err)
	}
	return &Reply{
		Message: fmt.Sprintf("✅ Force-checked **%d** streamer(s). **%d** currently live.", report.Checked, report.Live),
		Data:    report,
	}, nil
}

// Clear removes every watched channel and resets settings. It refuses to act
// unless confirm is set.
func (s *Service) Clear(ctx context.Context, scopeID string, confirm bool) (*Reply, error) {
	if !confirm {
		return nil, fail(CodeConfirmRequired,
			"⚠️ This will remove **all** monitored streamers and reset settings.\nRepeat with `confirm=true` to proceed.")
	}
	if err := s.store.Clear(ctx, scopeID); err != nil {
		return nil, fmt.Errorf("clear scope: %w", err)
	}
	logging.Ctx(ctx).Info().Str("scope", scopeID).Msg("Scope cleared")
	return &Reply{Message: "✅ All Kickwatch data has been cleared for this server."}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
