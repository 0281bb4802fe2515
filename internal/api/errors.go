// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/kickwatch/internal/commands"
	"github.com/tomtom215/kickwatch/internal/logging"
)

// statusForCode maps a command failure to an HTTP status.
func statusForCode(code commands.Code) int {
	switch code {
	case commands.CodeNotFound, commands.CodeNotMonitored:
		return http.StatusNotFound
	case commands.CodeAlreadyMonitored:
		return http.StatusConflict
	case commands.CodeNoChannel, commands.CodeInvalidInterval, commands.CodeInvalidStyle,
		commands.CodeInvalidUsername, commands.CodeConfirmRequired:
		return http.StatusBadRequest
	case commands.CodeDeliveryFailed:
		return http.StatusBadGateway
	case commands.CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Command failures keep their code and operator
// message; anything else is logged and reported as an internal error.
func writeError(rw *ResponseWriter, r *http.Request, err error) {
	var cerr *commands.Error
	if errors.As(err, &cerr) {
		rw.Error(statusForCode(cerr.Code), strings.ToUpper(string(cerr.Code)), cerr.Message)
		return
	}
	if errors.Is(err, context.Canceled) {
		// Client went away; nothing useful to write.
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request timed out")
		return
	}

	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Command failed")
	rw.InternalError("An internal error occurred")
}
