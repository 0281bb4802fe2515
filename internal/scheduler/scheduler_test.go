// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/engine"
	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/store"
)

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		MinInterval:     30 * time.Second,
		DefaultInterval: 60 * time.Second,
		ErrorBackoff:    60 * time.Second,
		EntityDelay:     2 * time.Second,
		ForceDelay:      time.Second,
	}
}

// fakeChecker records checks and reports channels in live as live.
type fakeChecker struct {
	mu     sync.Mutex
	calls  []string
	live   map[string]bool
	failOn string
}

func (f *fakeChecker) CheckScope(_ context.Context, scope *models.Scope, username string) (engine.Result, error) {
	return f.check(scope.ID, username)
}

func (f *fakeChecker) Check(_ context.Context, scopeID, username string) (engine.Result, error) {
	return f.check(scopeID, username)
}

func (f *fakeChecker) check(scopeID, username string) (engine.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, scopeID+"/"+username)
	if username == f.failOn {
		return engine.Result{}, errors.New("scripted failure")
	}
	return engine.Result{Live: f.live[username]}, nil
}

func (f *fakeChecker) checked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// sleepRecorder records requested sleeps and returns immediately.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.sleeps...)
}

func scopeWith(id string, interval int, names ...string) *models.Scope {
	sc := models.NewScope(id)
	sc.Settings.CheckIntervalSeconds = interval
	for _, n := range names {
		sc.Streamers[n] = models.WatchRecord{}
	}
	return sc
}

func seed(t *testing.T, scopes ...*models.Scope) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	for _, sc := range scopes {
		if err := st.Set(context.Background(), sc); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestNextSleep(t *testing.T) {
	t.Parallel()

	floor, fallback := 30*time.Second, 60*time.Second

	tests := []struct {
		name   string
		scopes []*models.Scope
		want   time.Duration
	}{
		{"floor applies", []*models.Scope{scopeWith("a", 45, "x"), scopeWith("b", 20, "y")}, 30 * time.Second},
		{"smallest interval", []*models.Scope{scopeWith("a", 45, "x"), scopeWith("b", 90, "y")}, 45 * time.Second},
		{"no scopes", nil, 60 * time.Second},
		{"empty scopes ignored", []*models.Scope{scopeWith("a", 30), scopeWith("b", 120, "y")}, 120 * time.Second},
		{"only empty scopes", []*models.Scope{scopeWith("a", 30)}, 60 * time.Second},
		{"maximum", []*models.Scope{scopeWith("a", 600, "x")}, 600 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NextSleep(tt.scopes, floor, fallback); got != tt.want {
				t.Errorf("NextSleep() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunCycle(t *testing.T) {
	t.Parallel()

	st := seed(t,
		scopeWith("g1", 45, "nova", "alpha"),
		scopeWith("g2", 90, "zed"),
		scopeWith("g3", 30),
	)
	checker := &fakeChecker{live: map[string]bool{"nova": true}}
	sleeps := &sleepRecorder{}
	s := New(st, checker, testConfig(), WithSleep(sleeps.sleep))

	report, err := s.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	want := []string{"g1/alpha", "g1/nova", "g2/zed"}
	if got := checker.checked(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("checks = %v, want %v", got, want)
	}
	if report.Scopes != 2 || report.Checked != 3 || report.Live != 1 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.NextSleep != 45*time.Second {
		t.Errorf("NextSleep = %v, want 45s", report.NextSleep)
	}

	got := sleeps.recorded()
	if len(got) != 1 || got[0] != 2*time.Second {
		t.Errorf("entity delays = %v, want one 2s pause inside g1", got)
	}

	stats := s.Stats()
	if stats.Cycles != 1 || stats.LastReport.Checked != 3 || stats.NextSleep != 45*time.Second {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestRunCycle_CheckErrorDoesNotStopCycle(t *testing.T) {
	t.Parallel()

	st := seed(t, scopeWith("g1", 60, "a", "b", "c"))
	checker := &fakeChecker{failOn: "b"}
	s := New(st, checker, testConfig(), WithSleep((&sleepRecorder{}).sleep))

	report, err := s.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if report.Checked != 2 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if n := len(checker.checked()); n != 3 {
		t.Errorf("checks = %d, want 3", n)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) List(context.Context) ([]*models.Scope, error) {
	return nil, errors.New("disk on fire")
}

func TestRunCycle_ListErrorBacksOff(t *testing.T) {
	t.Parallel()

	s := New(failingStore{store.NewMemoryStore()}, &fakeChecker{}, testConfig())

	report, err := s.RunCycle(context.Background())
	if err == nil {
		t.Fatal("RunCycle() error = nil")
	}
	if report.NextSleep != 60*time.Second {
		t.Errorf("NextSleep = %v, want error backoff", report.NextSleep)
	}
	if stats := s.Stats(); stats.FailedCycles != 1 || stats.LastError == "" {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestRunCycle_EntityDelayStaysWithinScope(t *testing.T) {
	t.Parallel()

	st := seed(t,
		scopeWith("g1", 60, "nova"),
		scopeWith("g2", 60, "zed"),
	)
	checker := &fakeChecker{}
	sleeps := &sleepRecorder{}
	s := New(st, checker, testConfig(), WithSleep(sleeps.sleep))

	if _, err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if n := len(checker.checked()); n != 2 {
		t.Errorf("checks = %d, want 2", n)
	}
	if got := sleeps.recorded(); len(got) != 0 {
		t.Errorf("entity delays = %v, want none between scopes", got)
	}
}

func TestRunCycle_CancelledDuringDelay(t *testing.T) {
	t.Parallel()

	st := seed(t, scopeWith("g1", 60, "a", "b", "c"))
	checker := &fakeChecker{}
	ctx, cancel := context.WithCancel(context.Background())
	s := New(st, checker, testConfig(), WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	if _, err := s.RunCycle(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("RunCycle() error = %v, want context.Canceled", err)
	}
	if n := len(checker.checked()); n != 1 {
		t.Errorf("checks = %d, want 1 before cancellation", n)
	}
}

type closeCounter struct{ n atomic.Int32 }

func (c *closeCounter) Close() error {
	c.n.Add(1)
	return nil
}

func TestScheduler_Lifecycle(t *testing.T) {
	t.Parallel()

	st := seed(t, scopeWith("g1", 45, "nova"))
	checker := &fakeChecker{}
	ready := make(chan struct{})
	cycleSleep := make(chan time.Duration, 1)
	upstream := &closeCounter{}

	s := New(st, checker, testConfig(),
		WithReady(ready),
		WithUpstream(upstream),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			select {
			case cycleSleep <- d:
			default:
			}
			<-ctx.Done()
			return ctx.Err()
		}),
	)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	// Nothing runs before the ready signal.
	time.Sleep(20 * time.Millisecond)
	if n := len(checker.checked()); n != 0 {
		t.Fatalf("checks before ready = %d", n)
	}

	close(ready)
	select {
	case d := <-cycleSleep:
		if d != 45*time.Second {
			t.Errorf("cycle sleep = %v, want 45s", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no cycle ran after ready")
	}

	s.Stop()
	s.Stop()

	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if n := upstream.n.Load(); n != 1 {
		t.Errorf("upstream closed %d times, want 1", n)
	}
	if n := len(checker.checked()); n != 1 {
		t.Errorf("checks = %d, want 1", n)
	}
}

func TestScheduler_ServeReturnsOnCancel(t *testing.T) {
	t.Parallel()

	s := New(store.NewMemoryStore(), &fakeChecker{}, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if s.String() != "scheduler" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestForceCheck(t *testing.T) {
	t.Parallel()

	st := seed(t, scopeWith("g1", 60, "a", "b", "c"), scopeWith("g2", 60, "z"))
	checker := &fakeChecker{live: map[string]bool{"a": true, "c": true}, failOn: "b"}
	sleeps := &sleepRecorder{}
	s := New(st, checker, testConfig(), WithSleep(sleeps.sleep))

	report, err := s.ForceCheck(context.Background(), "g1")
	if err != nil {
		t.Fatalf("ForceCheck() error = %v", err)
	}
	if report.Checked != 2 || report.Live != 2 {
		t.Errorf("report = %+v, want 2 checked 2 live", report)
	}
	if got := checker.checked(); fmt.Sprint(got) != "[g1/a g1/b g1/c]" {
		t.Errorf("checks = %v, want only g1", got)
	}
	if got := sleeps.recorded(); len(got) != 2 || got[0] != time.Second {
		t.Errorf("delays = %v, want two 1s pauses", got)
	}
}

func TestForceCheck_Empty(t *testing.T) {
	t.Parallel()

	s := New(store.NewMemoryStore(), &fakeChecker{}, testConfig())
	if _, err := s.ForceCheck(context.Background(), "g1"); !errors.Is(err, ErrNothingToCheck) {
		t.Errorf("ForceCheck() error = %v, want ErrNothingToCheck", err)
	}
}

func TestSleep(t *testing.T) {
	t.Parallel()

	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() ignored cancellation")
	}
}
