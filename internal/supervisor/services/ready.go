// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package services

import "sync"

// ReadySignal is a one-shot broadcast. The scheduler waits on C before its
// first cycle; the HTTP service or main fires it.
type ReadySignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewReadySignal returns an unfired signal.
func NewReadySignal() *ReadySignal {
	return &ReadySignal{ch: make(chan struct{})}
}

// Fire closes C. Further calls are no-ops.
func (r *ReadySignal) Fire() {
	r.once.Do(func() { close(r.ch) })
}

// C is closed once Fire has been called.
func (r *ReadySignal) C() <-chan struct{} {
	return r.ch
}

// Fired reports whether Fire has been called.
func (r *ReadySignal) Fired() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}
