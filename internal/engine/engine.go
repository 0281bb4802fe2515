// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package engine decides and applies per-channel live transitions.
//
// A check fetches the channel, compares it with the stored record, performs
// the Discord side effects and finally writes the record through the store's
// atomic update. Delivery always happens outside the store transaction. A
// record removed while a check was in flight is never written back.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kickwatch/internal/delivery"
	"github.com/tomtom215/kickwatch/internal/kick"
	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/metrics"
	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/render"
	"github.com/tomtom215/kickwatch/internal/store"
)

// Check outcomes used in metrics.
const (
	outcomeOK        = "ok"
	outcomeNotFound  = "not_found"
	outcomeTransient = "transient"
	outcomeError     = "error"
)

// ErrNotWatched is returned by Check when the scope does not watch the channel.
var ErrNotWatched = errors.New("channel is not watched in this scope")

// Result describes a finished check.
type Result struct {
	Transition Transition

	// Live is the persisted liveness after the check.
	Live bool

	// Skipped is set when the channel could not be fetched this cycle.
	Skipped bool

	// Delivered is false when a went-live notification could not be sent.
	Delivered bool
}

// Engine runs checks. It is safe for concurrent use. Checks of the same
// channel in the same scope run one at a time, each against a fresh read of
// the stored record.
type Engine struct {
	store     store.Store
	fetcher   kick.Fetcher
	messenger delivery.Messenger
	now       func() time.Time

	// locks holds one *sync.Mutex per scope and channel.
	locks sync.Map
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine.
func New(st store.Store, fetcher kick.Fetcher, messenger delivery.Messenger, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		fetcher:   fetcher,
		messenger: messenger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check loads the scope and checks one watched channel.
func (e *Engine) Check(ctx context.Context, scopeID, username string) (Result, error) {
	unlock := e.lock(scopeID, username)
	defer unlock()
	return e.checkLocked(ctx, scopeID, username)
}

// CheckScope checks one channel of a scope listed by the caller. The
// scheduler loads all scopes once per cycle to find its work; the record and
// settings are read again once the channel's lock is held, so a stale
// snapshot never drives a transition.
func (e *Engine) CheckScope(ctx context.Context, scope *models.Scope, username string) (Result, error) {
	if _, ok := scope.Streamers[username]; !ok {
		return Result{}, ErrNotWatched
	}
	unlock := e.lock(scope.ID, username)
	defer unlock()
	return e.checkLocked(ctx, scope.ID, username)
}

func (e *Engine) lock(scopeID, username string) func() {
	v, _ := e.locks.LoadOrStore(scopeID+"\x00"+username, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// checkLocked runs one check. Panics are recovered and returned as errors.
func (e *Engine) checkLocked(ctx context.Context, scopeID, username string) (res Result, err error) {
	scope, err := e.store.Get(ctx, scopeID)
	if err != nil {
		return Result{}, fmt.Errorf("load scope %s: %w", scopeID, err)
	}
	rec, ok := scope.Streamers[username]
	if !ok {
		return Result{}, ErrNotWatched
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordCheck(outcomeError)
			err = fmt.Errorf("check %s panicked: %v", username, r)
		}
	}()

	log := logging.Ctx(logging.ContextWithScope(ctx, scope.ID)).With().Str("username", username).Logger()

	info, err := e.fetcher.Fetch(ctx, username)
	if err != nil {
		outcome := outcomeTransient
		if errors.Is(err, kick.ErrNotFound) {
			outcome = outcomeNotFound
		}
		metrics.RecordCheck(outcome)
		log.Debug().Err(err).Msg("Fetch failed, skipping channel this cycle")
		return Result{Live: rec.IsLive, Skipped: true}, nil
	}

	t := Decide(&rec, info, scope.Settings.EmbedStyle)
	metrics.RecordTransition(t.String())

	res = Result{Transition: t, Live: rec.IsLive}
	switch t {
	case WentLive:
		res, err = e.goLive(ctx, &log, scope, username, &rec, info)
	case WentOffline:
		res, err = e.goOffline(ctx, &log, scope, username, &rec, info)
	case Refresh:
		e.refresh(ctx, &log, scope, &rec, info)
	}
	if err != nil {
		metrics.RecordCheck(outcomeError)
		return res, err
	}
	metrics.RecordCheck(outcomeOK)
	return res, nil
}

func (e *Engine) goLive(ctx context.Context, log *zerolog.Logger, scope *models.Scope, username string, rec *models.WatchRecord, info *models.StreamInfo) (Result, error) {
	res := Result{Transition: WentLive, Live: rec.IsLive}

	channelID := firstNonEmpty(rec.DeliveryChannelID, scope.Settings.DefaultChannelID)
	if channelID == "" {
		log.Debug().Msg("No delivery channel configured, skipping live notification")
		return res, nil
	}
	roleID := firstNonEmpty(rec.PingRoleID, scope.Settings.DefaultPingRoleID)

	content := render.Content(roleID, rec.CustomMessage, info)
	embed := render.Live(info, render.OptionsFor(&scope.Settings, e.now()))

	sent := e.messenger.Send(ctx, channelID, content, embed)
	if !sent.OK() {
		log.Warn().
			Str("channel_id", channelID).
			Str("outcome", sent.Outcome.String()).
			Err(sent.Err).
			Msg("Live notification not delivered")
		return res, nil
	}

	removed, err := e.writeRecord(ctx, scope.ID, username, func(r *models.WatchRecord) {
		r.IsLive = true
		r.LastSessionID = info.SessionID
		r.LastMessageID = sent.MessageID
		r.LastMessageChannelID = channelID
	})
	if err != nil {
		return res, err
	}
	if removed {
		log.Info().Str("message_id", sent.MessageID).Msg("Channel removed during check, state not saved")
		return res, nil
	}

	log.Info().
		Str("session_id", info.SessionID).
		Str("message_id", sent.MessageID).
		Str("channel_id", channelID).
		Msg("Channel went live")
	res.Live = true
	res.Delivered = true
	return res, nil
}

func (e *Engine) goOffline(ctx context.Context, log *zerolog.Logger, scope *models.Scope, username string, rec *models.WatchRecord, info *models.StreamInfo) (Result, error) {
	res := Result{Transition: WentOffline, Live: rec.IsLive}

	if rec.LastMessageID != "" {
		channelID := firstNonEmpty(rec.LastMessageChannelID, rec.DeliveryChannelID, scope.Settings.DefaultChannelID)
		if channelID != "" {
			e.retireMessage(ctx, log, channelID, rec, info, rec.ShouldDelete(scope.Settings.AutoDeleteOnOffline))
		}
	}

	removed, err := e.writeRecord(ctx, scope.ID, username, func(r *models.WatchRecord) {
		r.IsLive = false
		r.LastMessageID = ""
		r.LastMessageChannelID = ""
	})
	if err != nil {
		return res, err
	}

	log.Info().Bool("removed", removed).Msg("Channel went offline")
	res.Live = false
	return res, nil
}

// retireMessage deletes or edits the live notification. Failures are logged
// and swallowed.
func (e *Engine) retireMessage(ctx context.Context, log *zerolog.Logger, channelID string, rec *models.WatchRecord, info *models.StreamInfo, del bool) {
	l := log.With().Str("channel_id", channelID).Str("message_id", rec.LastMessageID).Logger()

	if fetched := e.messenger.FetchMessage(ctx, channelID, rec.LastMessageID); !fetched.OK() {
		l.Debug().Str("outcome", fetched.Outcome.String()).Msg("Live notification gone, nothing to retire")
		return
	}

	if del {
		if r := e.messenger.Delete(ctx, channelID, rec.LastMessageID); !r.OK() {
			l.Warn().Str("outcome", r.Outcome.String()).Err(r.Err).Msg("Could not delete live notification")
		}
		return
	}

	if r := e.messenger.Edit(ctx, channelID, rec.LastMessageID, "", render.Offline(info, e.now())); !r.OK() {
		l.Warn().Str("outcome", r.Outcome.String()).Err(r.Err).Msg("Could not edit live notification")
	}
}

// refresh re-renders the live notification. It never writes state.
func (e *Engine) refresh(ctx context.Context, log *zerolog.Logger, scope *models.Scope, rec *models.WatchRecord, info *models.StreamInfo) {
	if rec.LastMessageID == "" {
		return
	}
	channelID := firstNonEmpty(rec.LastMessageChannelID, rec.DeliveryChannelID, scope.Settings.DefaultChannelID)
	if channelID == "" {
		return
	}

	if fetched := e.messenger.FetchMessage(ctx, channelID, rec.LastMessageID); !fetched.OK() {
		log.Debug().Str("outcome", fetched.Outcome.String()).Msg("Live notification gone, skipping refresh")
		return
	}

	roleID := firstNonEmpty(rec.PingRoleID, scope.Settings.DefaultPingRoleID)
	content := render.Content(roleID, rec.CustomMessage, info)
	embed := render.Live(info, render.OptionsFor(&scope.Settings, e.now()))
	if r := e.messenger.Edit(ctx, channelID, rec.LastMessageID, content, embed); !r.OK() {
		log.Debug().Str("outcome", r.Outcome.String()).Err(r.Err).Msg("Refresh edit failed")
	}
}

// writeRecord applies fn to the stored record if it still exists. It reports
// true when the record was removed concurrently and nothing was written.
func (e *Engine) writeRecord(ctx context.Context, scopeID, username string, fn func(*models.WatchRecord)) (bool, error) {
	removed := false
	_, err := e.store.UpdateStreamers(ctx, scopeID, func(m map[string]models.WatchRecord) error {
		r, ok := m[username]
		if !ok {
			removed = true
			return store.ErrNoChange
		}
		fn(&r)
		m[username] = r
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("save %s in scope %s: %w", username, scopeID, err)
	}
	return removed, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
