// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package scheduler paces channel checks across all scopes.
//
// One goroutine runs cycles back to back: list every scope, check each
// watched channel in turn with a short delay between channels, then sleep
// for the smallest interval any active scope asked for (never below the
// configured floor). Every sleep observes cancellation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/engine"
	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/metrics"
	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/store"
)

// Checker runs a single channel check.
type Checker interface {
	Check(ctx context.Context, scopeID, username string) (engine.Result, error)
	CheckScope(ctx context.Context, scope *models.Scope, username string) (engine.Result, error)
}

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() then.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Scheduler is a suture-compatible service that runs check cycles.
type Scheduler struct {
	store    store.Store
	checker  Checker
	upstream io.Closer
	cfg      config.SchedulerConfig
	sleep    SleepFunc
	now      func() time.Time
	ready    <-chan struct{}

	// Runtime state
	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stats   Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSleep replaces the real sleep, mostly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(s *Scheduler) { s.sleep = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithReady delays the first cycle until ready is closed.
func WithReady(ready <-chan struct{}) Option {
	return func(s *Scheduler) { s.ready = ready }
}

// WithUpstream registers the upstream client closed when the scheduler stops.
func WithUpstream(c io.Closer) Option {
	return func(s *Scheduler) { s.upstream = c }
}

// New creates a Scheduler.
func New(st store.Store, checker Checker, cfg config.SchedulerConfig, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:   st,
		checker: checker,
		cfg:     cfg,
		sleep:   Sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Start launches the cycle loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.stats.Running = true
	s.mu.Unlock()

	logging.Info().
		Dur("min_interval", s.cfg.MinInterval).
		Dur("entity_delay", s.cfg.EntityDelay).
		Msg("Starting scheduler")

	s.wg.Add(1)
	go s.loop(loopCtx)
	return nil
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	s.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *Scheduler) String() string {
	return "scheduler"
}

// Stop cancels the loop, waits for it and releases the upstream client.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stats.Running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	if s.upstream != nil {
		if err := s.upstream.Close(); err != nil {
			logging.Warn().Err(err).Msg("Closing upstream client")
		}
	}
	logging.Info().Msg("Scheduler stopped")
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.ready != nil {
		select {
		case <-ctx.Done():
			return
		case <-s.ready:
		}
	}

	for {
		report, err := s.RunCycle(ctx)
		if ctx.Err() != nil {
			return
		}

		next := report.NextSleep
		if err != nil {
			next = s.cfg.ErrorBackoff
			logging.Error().Err(err).Dur("retry_in", next).Msg("Check cycle failed")
		}

		if s.sleep(ctx, next) != nil {
			return
		}
	}
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	Scopes    int
	Checked   int
	Live      int
	Failed    int
	Duration  time.Duration
	NextSleep time.Duration
}

// RunCycle checks every watched channel of every scope once.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := s.now()

	report, err := s.runCycle(ctx)
	report.Duration = s.now().Sub(start)
	if err != nil {
		report.NextSleep = s.cfg.ErrorBackoff
	}

	metrics.RecordSchedulerCycle(report.Duration, report.NextSleep, report.Live, err)
	s.record(report, err)

	logging.Ctx(ctx).Debug().
		Int("scopes", report.Scopes).
		Int("checked", report.Checked).
		Int("live", report.Live).
		Dur("duration", report.Duration).
		Dur("next_sleep", report.NextSleep).
		Msg("Check cycle finished")
	return report, err
}

func (s *Scheduler) runCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	scopes, err := s.store.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list scopes: %w", err)
	}

	for _, scope := range scopes {
		if !scope.HasStreamers() {
			continue
		}
		report.Scopes++

		// The entity delay separates channels of one scope.
		first := true
		for _, name := range sortedNames(scope.Streamers) {
			if !first {
				if err := s.sleep(ctx, s.cfg.EntityDelay); err != nil {
					return report, err
				}
			}
			first = false

			res, err := s.checker.CheckScope(ctx, scope, name)
			if err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				report.Failed++
				logging.Ctx(logging.ContextWithScope(ctx, scope.ID)).Error().
					Err(err).
					Str("username", name).
					Msg("Channel check failed")
				continue
			}
			report.Checked++
			if res.Live {
				report.Live++
			}
		}
	}

	report.NextSleep = NextSleep(scopes, s.cfg.MinInterval, s.cfg.DefaultInterval)
	return report, nil
}

// NextSleep returns the pause before the next cycle: the smallest check
// interval among scopes that watch at least one channel, raised to floor.
// With no active scope it returns fallback.
func NextSleep(scopes []*models.Scope, floor, fallback time.Duration) time.Duration {
	var shortest time.Duration
	for _, sc := range scopes {
		if !sc.HasStreamers() {
			continue
		}
		iv := sc.Settings.CheckInterval()
		if iv <= 0 {
			iv = fallback
		}
		if shortest == 0 || iv < shortest {
			shortest = iv
		}
	}
	if shortest == 0 {
		shortest = fallback
	}
	if shortest < floor {
		return floor
	}
	return shortest
}

// ForceReport is returned by ForceCheck.
type ForceReport struct {
	Checked int
	Live    int
}

// ErrNothingToCheck is returned by ForceCheck for a scope without channels.
var ErrNothingToCheck = errors.New("no streamers to check")

// ForceCheck immediately checks every channel of one scope, pausing
// cfg.ForceDelay between channels. Each check reads the record fresh.
func (s *Scheduler) ForceCheck(ctx context.Context, scopeID string) (ForceReport, error) {
	var report ForceReport

	scope, err := s.store.Get(ctx, scopeID)
	if err != nil {
		return report, fmt.Errorf("load scope %s: %w", scopeID, err)
	}
	if !scope.HasStreamers() {
		return report, ErrNothingToCheck
	}

	ctx = logging.ContextWithScope(logging.ContextWithNewCorrelationID(ctx), scopeID)
	for i, name := range sortedNames(scope.Streamers) {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.ForceDelay); err != nil {
				return report, err
			}
		}

		res, err := s.checker.Check(ctx, scopeID, name)
		if err != nil {
			if errors.Is(err, engine.ErrNotWatched) {
				continue
			}
			logging.Ctx(ctx).Error().Err(err).Str("username", name).Msg("Force check failed")
			continue
		}
		report.Checked++
		if res.Live {
			report.Live++
		}
	}

	logging.Ctx(ctx).Info().
		Int("checked", report.Checked).
		Int("live", report.Live).
		Msg("Force check finished")
	return report, nil
}

// Stats holds runtime statistics.
type Stats struct {
	Running      bool          `json:"running"`
	Cycles       int64         `json:"cycles"`
	FailedCycles int64         `json:"failed_cycles"`
	LastCycleAt  time.Time     `json:"last_cycle_at"`
	LastReport   CycleReport   `json:"last_report"`
	LastError    string        `json:"last_error,omitempty"`
	NextSleep    time.Duration `json:"next_sleep"`
}

// Stats returns a snapshot of runtime statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Scheduler) record(report CycleReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Cycles++
	s.stats.LastCycleAt = s.now()
	s.stats.LastReport = report
	s.stats.NextSleep = report.NextSleep
	s.stats.LastError = ""
	if err != nil {
		s.stats.FailedCycles++
		s.stats.LastError = err.Error()
	}
}

func sortedNames(m map[string]models.WatchRecord) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
