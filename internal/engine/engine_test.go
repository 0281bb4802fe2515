// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/kickwatch/internal/delivery"
	"github.com/tomtom215/kickwatch/internal/delivery/deliverytest"
	"github.com/tomtom215/kickwatch/internal/kick"
	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/store"
)

const testScope = "guild-1"

var testNow = time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)

// stubFetcher answers Fetch from a map; missing names are not found.
type stubFetcher struct {
	mu    sync.Mutex
	infos map[string]*models.StreamInfo
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, username string) (*models.StreamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[username]
	if !ok {
		return nil, kick.ErrNotFound
	}
	cp := *info
	return &cp, nil
}

func (f *stubFetcher) set(username string, info *models.StreamInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infos == nil {
		f.infos = make(map[string]*models.StreamInfo)
	}
	f.infos[username] = info
}

type panicFetcher struct{}

func (panicFetcher) Fetch(context.Context, string) (*models.StreamInfo, error) {
	panic("decoder exploded")
}

func novaLive(session string) *models.StreamInfo {
	return &models.StreamInfo{
		IsLive:      true,
		Username:    "nova",
		DisplayName: "Nova",
		ChannelURL:  "https://kick.com/nova",
		SessionID:   session,
		Title:       "Chess time",
		ViewerCount: 1234,
		Category:    "Chess",
	}
}

func novaOffline() *models.StreamInfo {
	return &models.StreamInfo{
		Username:    "nova",
		DisplayName: "Nova",
		ChannelURL:  "https://kick.com/nova",
	}
}

type harness struct {
	store   *store.MemoryStore
	fetcher *stubFetcher
	msgr    *deliverytest.Recorder
	engine  *Engine
}

func newHarness(t *testing.T, rec models.WatchRecord, mutate func(*models.ScopeSettings)) *harness {
	t.Helper()

	st := store.NewMemoryStore()
	sc := models.NewScope(testScope)
	sc.Settings.DefaultChannelID = "123"
	if mutate != nil {
		mutate(&sc.Settings)
	}
	sc.Streamers["nova"] = rec
	if err := st.Set(context.Background(), sc); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := &harness{
		store:   st,
		fetcher: &stubFetcher{},
		msgr:    &deliverytest.Recorder{},
	}
	h.engine = New(st, h.fetcher, h.msgr, WithClock(func() time.Time { return testNow }))
	return h
}

func (h *harness) record(t *testing.T) models.WatchRecord {
	t.Helper()
	sc, err := h.store.Get(context.Background(), testScope)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	return sc.Streamers["nova"]
}

func (h *harness) check(t *testing.T) Result {
	t.Helper()
	res, err := h.engine.Check(context.Background(), testScope, "nova")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	return res
}

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rec   models.WatchRecord
		info  *models.StreamInfo
		style models.EmbedStyle
		want  Transition
	}{
		{"offline to live", models.WatchRecord{}, novaLive("A"), models.EmbedStyleDetailed, WentLive},
		{"offline to live without session", models.WatchRecord{}, novaLive(""), models.EmbedStyleDetailed, WentLive},
		{"new session while live", models.WatchRecord{IsLive: true, LastSessionID: "A"}, novaLive("B"), models.EmbedStyleMinimal, WentLive},
		{"same session detailed", models.WatchRecord{IsLive: true, LastSessionID: "A"}, novaLive("A"), models.EmbedStyleDetailed, Refresh},
		{"same session minimal", models.WatchRecord{IsLive: true, LastSessionID: "A"}, novaLive("A"), models.EmbedStyleMinimal, None},
		{"missing session while live", models.WatchRecord{IsLive: true, LastSessionID: "A"}, novaLive(""), models.EmbedStyleMinimal, None},
		{"live to offline", models.WatchRecord{IsLive: true, LastSessionID: "A"}, novaOffline(), models.EmbedStyleDetailed, WentOffline},
		{"offline stays offline", models.WatchRecord{}, novaOffline(), models.EmbedStyleDetailed, None},
		{"race window resolves to live", models.WatchRecord{LastSessionID: "A"}, novaLive("A"), models.EmbedStyleDetailed, WentLive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Decide(&tt.rec, tt.info, tt.style); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheck_WentLive(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	h.fetcher.set("nova", novaLive("41234567"))

	res := h.check(t)
	if res.Transition != WentLive || !res.Live || !res.Delivered {
		t.Errorf("Result = %+v", res)
	}

	sends := h.msgr.CallsFor(delivery.OpSend)
	if len(sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(sends))
	}
	if sends[0].ChannelID != "123" || sends[0].Embed == nil || sends[0].Embed.Title != "Chess time" {
		t.Errorf("send = %+v", sends[0])
	}
	if sends[0].Content != "" {
		t.Errorf("content = %q, want empty without role or message", sends[0].Content)
	}

	rec := h.record(t)
	if !rec.IsLive || rec.LastSessionID != "41234567" || rec.LastMessageID != "m1" || rec.LastMessageChannelID != "123" {
		t.Errorf("record = %+v", rec)
	}
}

func TestCheck_WentLiveIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, func(s *models.ScopeSettings) {
		s.EmbedStyle = models.EmbedStyleMinimal
	})
	h.fetcher.set("nova", novaLive("41234567"))

	h.check(t)
	res := h.check(t)
	if res.Transition != None {
		t.Errorf("second Transition = %v, want none", res.Transition)
	}
	if n := len(h.msgr.Calls()); n != 1 {
		t.Errorf("calls = %d, want only the first send", n)
	}
}

func TestCheck_DetailedRefreshEditsWithoutWriting(t *testing.T) {
	t.Parallel()

	rec := models.WatchRecord{IsLive: true, LastSessionID: "A", LastMessageID: "m9", LastMessageChannelID: "456"}
	h := newHarness(t, rec, nil)
	info := novaLive("A")
	info.ViewerCount = 5000
	h.fetcher.set("nova", info)

	res := h.check(t)
	if res.Transition != Refresh {
		t.Fatalf("Transition = %v, want refresh", res.Transition)
	}

	edits := h.msgr.CallsFor(delivery.OpEdit)
	if len(edits) != 1 || edits[0].ChannelID != "456" || edits[0].MessageID != "m9" {
		t.Fatalf("edits = %+v", edits)
	}
	if len(h.msgr.CallsFor(delivery.OpSend)) != 0 {
		t.Error("refresh sent a new message")
	}
	if got := h.record(t); got != rec {
		t.Errorf("record changed by refresh: %+v", got)
	}
}

func TestCheck_SessionChangeSendsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{IsLive: true, LastSessionID: "A", LastMessageID: "old"}, nil)
	h.fetcher.set("nova", novaLive("B"))

	res := h.check(t)
	if res.Transition != WentLive {
		t.Fatalf("Transition = %v", res.Transition)
	}

	calls := h.msgr.Calls()
	if len(calls) != 1 || calls[0].Op != delivery.OpSend {
		t.Fatalf("calls = %+v, want exactly one send", calls)
	}
	rec := h.record(t)
	if rec.LastSessionID != "B" || rec.LastMessageID != "m1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestCheck_WentOfflineEditsMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{IsLive: true, LastSessionID: "A", LastMessageID: "m1", LastMessageChannelID: "123"}, nil)
	h.fetcher.set("nova", novaOffline())

	res := h.check(t)
	if res.Transition != WentOffline || res.Live {
		t.Errorf("Result = %+v", res)
	}

	calls := h.msgr.Calls()
	if len(calls) != 2 || calls[0].Op != delivery.OpFetch || calls[1].Op != delivery.OpEdit {
		t.Fatalf("calls = %+v, want fetch then edit", calls)
	}
	edit := calls[1]
	if edit.Content != "" || edit.Embed == nil || edit.Embed.Footer.Text != "Kick.com • Stream Ended" {
		t.Errorf("edit = %+v", edit)
	}

	rec := h.record(t)
	if rec.IsLive || rec.LastMessageID != "" || rec.LastMessageChannelID != "" {
		t.Errorf("record = %+v", rec)
	}
	if rec.LastSessionID != "A" {
		t.Errorf("LastSessionID = %q, want it kept", rec.LastSessionID)
	}
}

func TestCheck_WentOfflineDeletes(t *testing.T) {
	t.Parallel()

	yes := true
	no := false

	tests := []struct {
		name       string
		override   *bool
		autoDelete bool
		wantOp     string
	}{
		{"record says delete", &yes, false, delivery.OpDelete},
		{"scope default delete", nil, true, delivery.OpDelete},
		{"record overrides scope", &no, true, delivery.OpEdit},
		{"default edit", nil, false, delivery.OpEdit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := models.WatchRecord{IsLive: true, LastMessageID: "m1", DeleteOnOffline: tt.override}
			h := newHarness(t, rec, func(s *models.ScopeSettings) { s.AutoDeleteOnOffline = tt.autoDelete })
			h.fetcher.set("nova", novaOffline())

			h.check(t)

			calls := h.msgr.Calls()
			if len(calls) != 2 || calls[1].Op != tt.wantOp {
				t.Errorf("calls = %+v, want fetch then %s", calls, tt.wantOp)
			}
			if got := h.record(t); got.LastMessageID != "" || got.IsLive {
				t.Errorf("record = %+v", got)
			}
		})
	}
}

func TestCheck_WentOfflineClearsStateOnDeliveryFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		op      string
		outcome delivery.Outcome
		calls   int
	}{
		{"message already gone", delivery.OpFetch, delivery.NotFound, 1},
		{"edit forbidden", delivery.OpEdit, delivery.PermissionDenied, 2},
		{"edit failed", delivery.OpEdit, delivery.Failed, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, models.WatchRecord{IsLive: true, LastMessageID: "m1"}, nil)
			h.fetcher.set("nova", novaOffline())
			h.msgr.Fail(tt.op, tt.outcome)

			h.check(t)

			if n := len(h.msgr.Calls()); n != tt.calls {
				t.Errorf("calls = %d, want %d", n, tt.calls)
			}
			if got := h.record(t); got.IsLive || got.LastMessageID != "" {
				t.Errorf("record = %+v, want offline with message cleared", got)
			}
		})
	}
}

func TestCheck_WentOfflineWithoutMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{IsLive: true}, nil)
	h.fetcher.set("nova", novaOffline())

	h.check(t)

	if n := len(h.msgr.Calls()); n != 0 {
		t.Errorf("calls = %d, want none", n)
	}
	if h.record(t).IsLive {
		t.Error("record still live")
	}
}

func TestCheck_SendFailurePersistsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	h.fetcher.set("nova", novaLive("A"))
	h.msgr.Fail(delivery.OpSend, delivery.PermissionDenied)

	res := h.check(t)
	if res.Delivered || res.Live {
		t.Errorf("Result = %+v", res)
	}
	if got := h.record(t); got != (models.WatchRecord{}) {
		t.Errorf("record = %+v, want unchanged", got)
	}

	// Next cycle retries the announcement.
	h.msgr.Reset()
	res = h.check(t)
	if res.Transition != WentLive || !res.Delivered {
		t.Errorf("retry Result = %+v", res)
	}
}

func TestCheck_NoChannelSkips(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, func(s *models.ScopeSettings) { s.DefaultChannelID = "" })
	h.fetcher.set("nova", novaLive("A"))

	res := h.check(t)
	if res.Transition != WentLive || res.Delivered {
		t.Errorf("Result = %+v", res)
	}
	if n := len(h.msgr.Calls()); n != 0 {
		t.Errorf("calls = %d, want none", n)
	}
	if h.record(t).IsLive {
		t.Error("record marked live without a delivery")
	}
}

func TestCheck_ContentUsesOverrides(t *testing.T) {
	t.Parallel()

	rec := models.WatchRecord{
		DeliveryChannelID: "777",
		PingRoleID:        "42",
		CustomMessage:     "{streamer} playing {game} — {url}",
	}
	h := newHarness(t, rec, func(s *models.ScopeSettings) { s.DefaultPingRoleID = "1" })
	h.fetcher.set("nova", novaLive("A"))

	h.check(t)

	sends := h.msgr.CallsFor(delivery.OpSend)
	if len(sends) != 1 {
		t.Fatalf("sends = %d", len(sends))
	}
	if sends[0].ChannelID != "777" {
		t.Errorf("channel = %q, want record override", sends[0].ChannelID)
	}
	if want := "<@&42>\nNova playing Chess — https://kick.com/nova"; sends[0].Content != want {
		t.Errorf("content = %q, want %q", sends[0].Content, want)
	}
}

func TestCheck_FetchFailureSkips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"not found", kick.ErrNotFound},
		{"transient", &kick.TransientError{Username: "nova", StatusCode: 503}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, models.WatchRecord{IsLive: true, LastMessageID: "m1"}, nil)
			h.fetcher.err = tt.err

			res := h.check(t)
			if !res.Skipped || !res.Live {
				t.Errorf("Result = %+v", res)
			}
			if n := len(h.msgr.Calls()); n != 0 {
				t.Errorf("calls = %d, want none", n)
			}
			if got := h.record(t); !got.IsLive || got.LastMessageID != "m1" {
				t.Errorf("record = %+v, want untouched", got)
			}
		})
	}
}

func TestCheck_RemovedDuringCheckIsNotResurrected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	h.fetcher.set("nova", novaLive("A"))
	h.msgr.OnSend = func(ctx context.Context, _ string) {
		_, _ = h.store.UpdateStreamers(ctx, testScope, func(m map[string]models.WatchRecord) error {
			delete(m, "nova")
			return nil
		})
	}

	res := h.check(t)
	if res.Delivered {
		t.Errorf("Result = %+v, want not delivered", res)
	}

	sc, _ := h.store.Get(context.Background(), testScope)
	if _, ok := sc.Streamers["nova"]; ok {
		t.Error("removed record was written back")
	}
}

func TestCheck_StaleSnapshotSendsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	h.fetcher.set("nova", novaLive("A"))

	snapshot, err := h.store.Get(context.Background(), testScope)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := h.engine.CheckScope(context.Background(), snapshot, "nova"); err != nil {
			t.Fatalf("CheckScope() error = %v", err)
		}
	}

	if n := len(h.msgr.CallsFor(delivery.OpSend)); n != 1 {
		t.Errorf("sends = %d, want 1 from an offline snapshot checked twice", n)
	}
	if got := h.record(t).LastMessageID; got != "m1" {
		t.Errorf("LastMessageID = %q, want m1", got)
	}
}

func TestCheck_ConcurrentWentLiveSendsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	h.fetcher.set("nova", novaLive("abc123"))

	// A slow Send keeps the first check in flight while the second starts.
	h.msgr.OnSend = func(context.Context, string) {
		time.Sleep(100 * time.Millisecond)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Check(context.Background(), testScope, "nova")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
	}

	sends := h.msgr.CallsFor(delivery.OpSend)
	if len(sends) != 1 {
		t.Fatalf("sends = %d, want 1 for one session", len(sends))
	}
	rec := h.record(t)
	if !rec.IsLive || rec.LastSessionID != "abc123" || rec.LastMessageID != "m1" {
		t.Errorf("record = %+v, want live with the single sent message", rec)
	}
}

func TestCheck_DistinctChannelsDoNotBlock(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	h.fetcher.set("nova", novaLive("A"))
	h.fetcher.set("orbit", &models.StreamInfo{IsLive: true, Username: "orbit", SessionID: "B", ChannelURL: "https://kick.com/orbit"})
	if _, err := h.store.UpdateStreamers(context.Background(), testScope, func(m map[string]models.WatchRecord) error {
		m["orbit"] = models.WatchRecord{}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// nova's Send blocks until orbit has been announced.
	orbitSent := make(chan struct{})
	var once sync.Once
	h.msgr.OnSend = func(context.Context, string) {
		first := false
		once.Do(func() { first = true })
		if !first {
			close(orbitSent)
			return
		}
		select {
		case <-orbitSent:
		case <-time.After(2 * time.Second):
			t.Error("second channel was blocked by the first")
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.engine.Check(context.Background(), testScope, "nova")
	}()
	// Give nova a head start into Send.
	time.Sleep(20 * time.Millisecond)
	if _, err := h.engine.Check(context.Background(), testScope, "orbit"); err != nil {
		t.Fatalf("Check(orbit) error = %v", err)
	}
	<-done

	if n := len(h.msgr.CallsFor(delivery.OpSend)); n != 2 {
		t.Errorf("sends = %d, want 2", n)
	}
}

func TestCheck_NotWatched(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	if _, err := h.engine.Check(context.Background(), testScope, "ghost"); !errors.Is(err, ErrNotWatched) {
		t.Errorf("Check() error = %v, want ErrNotWatched", err)
	}
}

func TestCheck_RecoversPanic(t *testing.T) {
	t.Parallel()

	h := newHarness(t, models.WatchRecord{}, nil)
	e := New(h.store, panicFetcher{}, h.msgr)

	_, err := e.Check(context.Background(), testScope, "nova")
	if err == nil {
		t.Fatal("Check() error = nil, want recovered panic")
	}
}

func TestTransitionString(t *testing.T) {
	t.Parallel()

	tests := map[Transition]string{
		None:        "none",
		WentLive:    "went_live",
		Refresh:     "refresh",
		WentOffline: "went_offline",
	}
	for tr, want := range tests {
		if got := tr.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
