// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package kick

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when Kick answers 404 for a channel. It is a
	// definitive answer, not a transient failure.
	ErrNotFound = errors.New("kick: channel not found")

	// ErrTransient matches every *TransientError via errors.Is.
	ErrTransient = errors.New("kick: transient upstream error")

	// ErrInvalidUsername is returned when a username normalizes to "".
	ErrInvalidUsername = errors.New("kick: invalid username")
)

// TransientError describes a fetch that may succeed on a later cycle:
// non-200/404 status, timeout, network fault, malformed body or an open
// circuit breaker.
type TransientError struct {
	Username   string
	StatusCode int
	RetryAfter time.Duration
	Reason     string
	Err        error
}

func (e *TransientError) Error() string {
	msg := fmt.Sprintf("kick: fetch %s: %s", e.Username, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrTransient) true.
func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a transient upstream failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
