// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package services

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockHTTPServer is a test double for HTTPServer.
type mockHTTPServer struct {
	serveErr    error
	serveBlock  bool
	shutdownErr error
	serveCount  atomic.Int32
	shutdowns   atomic.Int32
	serveCalled chan struct{}
	stopCh      chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		serveCalled: make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
}

func (m *mockHTTPServer) Serve(l net.Listener) error {
	defer l.Close()
	m.serveCount.Add(1)

	select {
	case m.serveCalled <- struct{}{}:
	default:
	}

	if m.serveErr != nil {
		return m.serveErr
	}
	if m.serveBlock {
		<-m.stopCh
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func loopback() string { return "127.0.0.1:0" }

func TestHTTPServerService_Interface(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
	var _ HTTPServer = (*http.Server)(nil)
}

func TestNewHTTPServerService_Defaults(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), ":8080", 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s", svc.shutdownTimeout)
	}
	if svc.String() != "http-server" {
		t.Errorf("String() = %q, want http-server", svc.String())
	}

	svc = NewHTTPServerService(newMockHTTPServer(), ":8080", -time.Second)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("negative timeout = %v, want 10s", svc.shutdownTimeout)
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("shuts down gracefully on context cancellation", func(t *testing.T) {
		server := newMockHTTPServer()
		server.serveBlock = true
		svc := NewHTTPServerService(server, loopback(), time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-server.serveCalled:
		case <-time.After(time.Second):
			t.Fatal("server did not start")
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times, want 1", server.shutdowns.Load())
		}
	})

	t.Run("returns serve error", func(t *testing.T) {
		serveErr := errors.New("accept: too many open files")
		server := newMockHTTPServer()
		server.serveErr = serveErr
		svc := NewHTTPServerService(server, loopback(), time.Second)

		err := svc.Serve(context.Background())
		if !errors.Is(err, serveErr) {
			t.Errorf("expected wrapped serve error, got %v", err)
		}
	})

	t.Run("returns listen error without serving", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		server := newMockHTTPServer()
		svc := NewHTTPServerService(server, ":8080", time.Second,
			WithListenFunc(func(string, string) (net.Listener, error) { return nil, bindErr }),
			WithOnListening(func(net.Addr) { t.Error("OnListening called after failed bind") }),
		)

		err := svc.Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("expected bind error, got %v", err)
		}
		if server.serveCount.Load() != 0 {
			t.Error("Serve should not run after a failed bind")
		}
	})

	t.Run("returns shutdown error", func(t *testing.T) {
		shutdownErr := errors.New("shutdown timeout")
		server := newMockHTTPServer()
		server.serveBlock = true
		server.shutdownErr = shutdownErr
		svc := NewHTTPServerService(server, loopback(), time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		<-server.serveCalled
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, shutdownErr) {
				t.Errorf("expected shutdown error, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})

	t.Run("clean exit without cancellation", func(t *testing.T) {
		svc := NewHTTPServerService(newMockHTTPServer(), loopback(), time.Second)
		if err := svc.Serve(context.Background()); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestHTTPServerService_RealServer(t *testing.T) {
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}),
		ReadHeaderTimeout: time.Second,
	}

	bound := make(chan net.Addr, 1)
	svc := NewHTTPServerService(srv, loopback(), time.Second,
		WithOnListening(func(a net.Addr) { bound <- a }))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	var addr net.Addr
	select {
	case addr = <-bound:
	case <-time.After(2 * time.Second):
		t.Fatal("server never bound")
	}

	resp, err := http.Get("http://" + addr.String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReadySignal(t *testing.T) {
	r := NewReadySignal()
	if r.Fired() {
		t.Fatal("new signal already fired")
	}

	r.Fire()
	r.Fire()

	select {
	case <-r.C():
	default:
		t.Fatal("C not closed after Fire")
	}
	if !r.Fired() {
		t.Error("Fired() = false after Fire")
	}
}
