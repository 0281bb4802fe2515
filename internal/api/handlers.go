// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kickwatch/internal/commands"
	"github.com/tomtom215/kickwatch/internal/scheduler"
	"github.com/tomtom215/kickwatch/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// SchedulerStatus reports scheduler progress for health checks.
type SchedulerStatus interface {
	Stats() scheduler.Stats
}

// BreakerStatus reports the upstream circuit breaker state.
type BreakerStatus interface {
	BreakerState() string
}

// Handler serves the admin API.
type Handler struct {
	commands  *commands.Service
	scheduler SchedulerStatus
	upstream  BreakerStatus
	startTime time.Time
}

// NewHandler creates an API handler. sched and upstream may be nil, in which
// case health reports omit them.
func NewHandler(svc *commands.Service, sched SchedulerStatus, upstream BreakerStatus) *Handler {
	return &Handler{
		commands:  svc,
		scheduler: sched,
		upstream:  upstream,
		startTime: time.Now(),
	}
}

// decodeBody decodes and validates a JSON body into v. An empty body is
// accepted when optional is set. It writes the error response and returns
// false on failure.
func decodeBody(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, v interface{}, optional bool) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return false
		}
		rw.BadRequest("Could not read request body")
		return false
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if !optional {
			rw.BadRequest("Request body is required")
			return false
		}
	} else if err := json.Unmarshal(body, v); err != nil {
		rw.BadRequest("Invalid JSON body")
		return false
	}
	return validate(rw, v)
}

func validate(rw *ResponseWriter, v interface{}) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// username validates the {username} path parameter.
func username(rw *ResponseWriter, r *http.Request) (string, bool) {
	p := usernameParam{Username: chi.URLParam(r, "username")}
	if !validate(rw, &p) {
		return "", false
	}
	return p.Username, true
}

func scopeID(r *http.Request) string {
	return chi.URLParam(r, "scope")
}

// reply writes a command result.
func reply(rw *ResponseWriter, r *http.Request, res *commands.Reply, err error) {
	if err != nil {
		writeError(rw, r, err)
		return
	}
	rw.Success(res)
}

// CheckChannel handles GET /api/v1/kick/{username}.
func (h *Handler) CheckChannel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name, ok := username(rw, r)
	if !ok {
		return
	}
	res, err := h.commands.Check(r.Context(), name)
	reply(rw, r, res, err)
}

// GetSettings handles GET /api/v1/scopes/{scope}.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.commands.Settings(r.Context(), scopeID(r))
	reply(rw, r, res, err)
}

// ClearScope handles DELETE /api/v1/scopes/{scope}?confirm=true.
func (h *Handler) ClearScope(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	confirm := false
	if v := r.URL.Query().Get("confirm"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			rw.BadRequest("confirm must be true or false")
			return
		}
		confirm = b
	}

	res, err := h.commands.Clear(r.Context(), scopeID(r), confirm)
	reply(rw, r, res, err)
}

// SetChannel handles PUT /api/v1/scopes/{scope}/channel.
func (h *Handler) SetChannel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req channelRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.SetChannel(r.Context(), scopeID(r), req.ChannelID)
	reply(rw, r, res, err)
}

// SetScopeRole handles PUT /api/v1/scopes/{scope}/role.
func (h *Handler) SetScopeRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req roleRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.SetRole(r.Context(), scopeID(r), req.RoleID, "")
	reply(rw, r, res, err)
}

// RemoveScopeRole handles DELETE /api/v1/scopes/{scope}/role.
func (h *Handler) RemoveScopeRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.commands.RemoveRole(r.Context(), scopeID(r), "")
	reply(rw, r, res, err)
}

// SetInterval handles PUT /api/v1/scopes/{scope}/interval.
func (h *Handler) SetInterval(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req intervalRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.SetInterval(r.Context(), scopeID(r), *req.Seconds)
	reply(rw, r, res, err)
}

// SetStyle handles PUT /api/v1/scopes/{scope}/style.
func (h *Handler) SetStyle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req styleRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.SetStyle(r.Context(), scopeID(r), req.Style)
	reply(rw, r, res, err)
}

// SetToggle handles POST /api/v1/scopes/{scope}/toggles/{toggle}.
func (h *Handler) SetToggle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	toggle, ok := commands.ParseToggle(chi.URLParam(r, "toggle"))
	if !ok {
		rw.NotFound("Unknown toggle; use autodelete, viewers or category")
		return
	}
	var req toggleRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.SetToggle(r.Context(), scopeID(r), toggle, *req.Enabled)
	reply(rw, r, res, err)
}

// Force handles POST /api/v1/scopes/{scope}/force.
func (h *Handler) Force(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.commands.Force(r.Context(), scopeID(r))
	reply(rw, r, res, err)
}

// ListStreamers handles GET /api/v1/scopes/{scope}/streamers.
func (h *Handler) ListStreamers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.commands.List(r.Context(), scopeID(r))
	reply(rw, r, res, err)
}

// AddStreamer handles POST /api/v1/scopes/{scope}/streamers.
func (h *Handler) AddStreamer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req addStreamerRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.Add(r.Context(), scopeID(r), req.Username, req.ChannelID)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	rw.Created(res)
}

// RemoveStreamer handles DELETE /api/v1/scopes/{scope}/streamers/{username}.
func (h *Handler) RemoveStreamer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name, ok := username(rw, r)
	if !ok {
		return
	}
	res, err := h.commands.Remove(r.Context(), scopeID(r), name)
	reply(rw, r, res, err)
}

// SetStreamerRole handles PUT .../streamers/{username}/role.
func (h *Handler) SetStreamerRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name, ok := username(rw, r)
	if !ok {
		return
	}
	var req roleRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.SetRole(r.Context(), scopeID(r), req.RoleID, name)
	reply(rw, r, res, err)
}

// RemoveStreamerRole handles DELETE .../streamers/{username}/role.
func (h *Handler) RemoveStreamerRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name, ok := username(rw, r)
	if !ok {
		return
	}
	res, err := h.commands.RemoveRole(r.Context(), scopeID(r), name)
	reply(rw, r, res, err)
}

// SetMessage handles PUT .../streamers/{username}/message.
func (h *Handler) SetMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name, ok := username(rw, r)
	if !ok {
		return
	}
	var req messageRequest
	if !decodeBody(rw, w, r, &req, false) {
		return
	}
	res, err := h.commands.SetMessage(r.Context(), scopeID(r), name, req.Message)
	reply(rw, r, res, err)
}

// SetDeleteOnOffline handles PUT .../streamers/{username}/delete-on-offline.
func (h *Handler) SetDeleteOnOffline(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name, ok := username(rw, r)
	if !ok {
		return
	}
	var req deleteOnOfflineRequest
	if !decodeBody(rw, w, r, &req, true) {
		return
	}
	res, err := h.commands.SetDeleteOnOffline(r.Context(), scopeID(r), name, req.Enabled)
	reply(rw, r, res, err)
}

// TestAnnouncement handles POST .../streamers/{username}/test.
func (h *Handler) TestAnnouncement(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name, ok := username(rw, r)
	if !ok {
		return
	}
	var req testRequest
	if !decodeBody(rw, w, r, &req, true) {
		return
	}
	res, err := h.commands.Test(r.Context(), scopeID(r), name, req.ChannelID)
	reply(rw, r, res, err)
}
