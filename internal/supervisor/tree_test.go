// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// fakeService counts starts and optionally fails its first runs.
type fakeService struct {
	name      string
	starts    atomic.Int32
	failFirst int32
}

func (f *fakeService) Serve(ctx context.Context) error {
	n := f.starts.Add(1)
	if n <= f.failFirst {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) String() string { return f.name }

func (f *fakeService) StartCount() int { return int(f.starts.Load()) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	got := tree.Config()
	want := DefaultTreeConfig()
	if got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}
}

func TestNewSupervisorTree_KeepsExplicitValues(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 2,
		FailureBackoff:   time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	cfg := tree.Config()
	if cfg.FailureThreshold != 2 {
		t.Errorf("FailureThreshold = %v, want 2", cfg.FailureThreshold)
	}
	if cfg.FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, want 1s", cfg.FailureBackoff)
	}
	if cfg.FailureDecay != 30.0 {
		t.Errorf("FailureDecay = %v, want default 30", cfg.FailureDecay)
	}
}

func TestSupervisorTree_StartsBothLayers(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

	monitor := &fakeService{name: "monitor"}
	api := &fakeService{name: "api"}
	tree.AddMonitorService(monitor)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return monitor.StartCount() >= 1 && api.StartCount() >= 1 })
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := &fakeService{name: "flaky", failFirst: 2}
	stable := &fakeService{name: "stable"}
	tree.AddAPIService(flaky)
	tree.AddMonitorService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return flaky.StartCount() >= 3 })

	if stable.StartCount() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.StartCount())
	}

	cancel()
	<-errCh
}
