// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package deliverytest provides an in-memory delivery.Messenger for tests.
package deliverytest

import (
	"context"
	"strconv"
	"sync"

	"github.com/tomtom215/kickwatch/internal/delivery"
	"github.com/tomtom215/kickwatch/internal/models"
)

// Call is one recorded Messenger invocation.
type Call struct {
	Op        string
	ChannelID string
	MessageID string
	Content   string
	Embed     *models.Embed
}

// Recorder records every call and answers with scripted outcomes. Sends
// return sequential message IDs "m1", "m2", ... The zero value is ready to use.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	outcomes map[string]delivery.Outcome
	nextID   int

	// OnSend, when set, runs before a Send is answered.
	OnSend func(ctx context.Context, channelID string)
}

// Fail makes every subsequent call of op return outcome.
func (r *Recorder) Fail(op string, outcome delivery.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]delivery.Outcome)
	}
	r.outcomes[op] = outcome
}

// Reset clears recorded calls and scripted outcomes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.outcomes = nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsFor returns the recorded calls of one operation.
func (r *Recorder) CallsFor(op string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) record(c Call) delivery.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if outcome, ok := r.outcomes[c.Op]; ok && outcome != delivery.OK {
		return delivery.Result{Outcome: outcome, Err: errScripted{op: c.Op}}
	}
	if c.Op == delivery.OpSend {
		r.nextID++
		return delivery.Result{Outcome: delivery.OK, MessageID: "m" + strconv.Itoa(r.nextID)}
	}
	return delivery.Result{Outcome: delivery.OK, MessageID: c.MessageID}
}

// Send implements delivery.Messenger.
func (r *Recorder) Send(ctx context.Context, channelID, content string, embed *models.Embed) delivery.Result {
	if r.OnSend != nil {
		r.OnSend(ctx, channelID)
	}
	return r.record(Call{Op: delivery.OpSend, ChannelID: channelID, Content: content, Embed: embed})
}

// FetchMessage implements delivery.Messenger.
func (r *Recorder) FetchMessage(_ context.Context, channelID, messageID string) delivery.Result {
	return r.record(Call{Op: delivery.OpFetch, ChannelID: channelID, MessageID: messageID})
}

// Edit implements delivery.Messenger.
func (r *Recorder) Edit(_ context.Context, channelID, messageID, content string, embed *models.Embed) delivery.Result {
	return r.record(Call{Op: delivery.OpEdit, ChannelID: channelID, MessageID: messageID, Content: content, Embed: embed})
}

// Delete implements delivery.Messenger.
func (r *Recorder) Delete(_ context.Context, channelID, messageID string) delivery.Result {
	return r.record(Call{Op: delivery.OpDelete, ChannelID: channelID, MessageID: messageID})
}

type errScripted struct{ op string }

func (e errScripted) Error() string { return "scripted " + e.op + " failure" }

var _ delivery.Messenger = (*Recorder)(nil)
