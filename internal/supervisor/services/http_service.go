// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// HTTPServer is the subset of *http.Server the service drives.
type HTTPServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// ListenFunc opens the listening socket. net.Listen by default.
type ListenFunc func(network, address string) (net.Listener, error)

// HTTPServerService runs an HTTP server under a supervisor.
//
// The socket is bound before http.Server.Serve is entered. A bind failure is
// returned as a service failure and OnListening is not called.
//
//	srv := &http.Server{Handler: router}
//	svc := services.NewHTTPServerService(srv, cfg.Server.Addr(), 10*time.Second,
//	    services.WithOnListening(func(net.Addr) { ready.Fire() }))
//	tree.AddAPIService(svc)
type HTTPServerService struct {
	server          HTTPServer
	addr            string
	shutdownTimeout time.Duration
	listen          ListenFunc
	onListening     func(net.Addr)
	name            string
}

// HTTPOption configures an HTTPServerService.
type HTTPOption func(*HTTPServerService)

// WithListenFunc replaces net.Listen.
func WithListenFunc(fn ListenFunc) HTTPOption {
	return func(h *HTTPServerService) { h.listen = fn }
}

// WithOnListening registers a callback invoked with the bound address on
// every successful bind, including restarts.
func WithOnListening(fn func(net.Addr)) HTTPOption {
	return func(h *HTTPServerService) { h.onListening = fn }
}

// NewHTTPServerService wraps server listening on addr. A non-positive
// shutdownTimeout becomes 10s.
func NewHTTPServerService(server HTTPServer, addr string, shutdownTimeout time.Duration, opts ...HTTPOption) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	h := &HTTPServerService{
		server:          server,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		listen:          net.Listen,
		name:            "http-server",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve implements suture.Service.
//
// Returns ctx.Err() after a graceful shutdown, or the bind/serve error.
// http.ErrServerClosed without cancellation is treated as a clean exit.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	ln, err := h.listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("http server listen on %s: %w", h.addr, err)
	}
	if h.onListening != nil {
		h.onListening(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled; drain connections on a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for supervisor logs.
func (h *HTTPServerService) String() string {
	return h.name
}
