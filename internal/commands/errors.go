// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package commands

import "errors"

// Code identifies a failed command precondition.
type Code string

// Command error codes.
const (
	CodeNotFound            Code = "not_found"
	CodeAlreadyMonitored    Code = "already_monitored"
	CodeNotMonitored        Code = "not_monitored"
	CodeNoChannel           Code = "no_channel"
	CodeInvalidInterval     Code = "invalid_interval"
	CodeInvalidStyle        Code = "invalid_style"
	CodeInvalidUsername     Code = "invalid_username"
	CodeConfirmRequired     Code = "confirm_required"
	CodeDeliveryFailed      Code = "delivery_failed"
	CodeUpstreamUnavailable Code = "upstream_unavailable"
)

// Error is a command failure carrying the operator-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf returns the code of a command error, or "" for other errors.
func CodeOf(err error) Code {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}
