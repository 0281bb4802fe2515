// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/metrics"
	"github.com/tomtom215/kickwatch/internal/models"
)

const maxErrorBodySize = 1024

// DiscordClient implements Messenger against the Discord REST API.
type DiscordClient struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewDiscordClient creates a Discord REST client.
func NewDiscordClient(cfg *config.DiscordConfig) *DiscordClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &DiscordClient{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   cfg.BotToken,
		client:  &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// messagePayload is the body of create and edit message calls. Content is
// always sent so an edit can clear it.
type messagePayload struct {
	Content         string           `json:"content"`
	Embeds          []models.Embed   `json:"embeds"`
	AllowedMentions *allowedMentions `json:"allowed_mentions,omitempty"`
}

// allowedMentions restricts pings to roles; everyone/here in a custom
// message stays inert.
type allowedMentions struct {
	Parse []string `json:"parse"`
}

type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// Send posts a new message.
func (c *DiscordClient) Send(ctx context.Context, channelID, content string, embed *models.Embed) Result {
	if channelID == "" {
		return c.finish(ctx, OpSend, Result{Outcome: Failed, Err: ErrMissingChannel})
	}
	payload := newPayload(content, embed)
	res := c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/messages", payload)
	// Without an id the message can never be edited or retired.
	if res.OK() && res.MessageID == "" {
		res.Outcome = Failed
		res.Err = ErrNoMessageID
	}
	return c.finish(ctx, OpSend, res)
}

// FetchMessage checks that a message exists.
func (c *DiscordClient) FetchMessage(ctx context.Context, channelID, messageID string) Result {
	if res, ok := checkIDs(channelID, messageID); !ok {
		return c.finish(ctx, OpFetch, res)
	}
	return c.finish(ctx, OpFetch, c.do(ctx, http.MethodGet, messagePath(channelID, messageID), nil))
}

// Edit replaces a message's content and embed.
func (c *DiscordClient) Edit(ctx context.Context, channelID, messageID, content string, embed *models.Embed) Result {
	if res, ok := checkIDs(channelID, messageID); !ok {
		return c.finish(ctx, OpEdit, res)
	}
	payload := newPayload(content, embed)
	res := c.do(ctx, http.MethodPatch, messagePath(channelID, messageID), payload)
	if res.OK() {
		res.MessageID = messageID
	}
	return c.finish(ctx, OpEdit, res)
}

// Delete removes a message.
func (c *DiscordClient) Delete(ctx context.Context, channelID, messageID string) Result {
	if res, ok := checkIDs(channelID, messageID); !ok {
		return c.finish(ctx, OpDelete, res)
	}
	res := c.do(ctx, http.MethodDelete, messagePath(channelID, messageID), nil)
	if res.OK() {
		res.MessageID = messageID
	}
	return c.finish(ctx, OpDelete, res)
}

func newPayload(content string, embed *models.Embed) *messagePayload {
	p := &messagePayload{
		Content:         content,
		Embeds:          []models.Embed{},
		AllowedMentions: &allowedMentions{Parse: []string{"roles"}},
	}
	if embed != nil {
		p.Embeds = append(p.Embeds, *embed)
	}
	return p
}

func messagePath(channelID, messageID string) string {
	return "/channels/" + url.PathEscape(channelID) + "/messages/" + url.PathEscape(messageID)
}

func checkIDs(channelID, messageID string) (Result, bool) {
	switch {
	case channelID == "":
		return Result{Outcome: Failed, Err: ErrMissingChannel}, false
	case messageID == "":
		return Result{Outcome: Failed, Err: ErrMissingMessage}, false
	}
	return Result{}, true
}

// do performs one request. It never retries.
func (c *DiscordClient) do(ctx context.Context, method, path string, payload *messagePayload) Result {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{Outcome: Failed, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Result{Outcome: Failed, Err: fmt.Errorf("marshal payload: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Result{Outcome: Failed, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", "DiscordBot (https://github.com/tomtom215/kickwatch, 1.0)")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Outcome: Failed, Err: fmt.Errorf("%s %s: %w", method, path, err)}
	}
	defer resp.Body.Close()

	res := Result{StatusCode: resp.StatusCode}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if resp.StatusCode != http.StatusNoContent {
			var msg messageResponse
			if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&msg); err == nil {
				res.MessageID = msg.ID
			}
		}
		res.Outcome = OK
		return res
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	res.Outcome = classifyHTTPStatusCode(resp.StatusCode)
	res.Err = fmt.Errorf("discord returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	if resp.StatusCode == http.StatusTooManyRequests {
		res.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return res
}

// finish records metrics and logs failures.
func (c *DiscordClient) finish(ctx context.Context, op string, res Result) Result {
	metrics.RecordDelivery(op, res.Outcome.String())
	if !res.OK() {
		ev := logging.Ctx(ctx).Warn().
			Str("operation", op).
			Str("outcome", res.Outcome.String()).
			Int("status", res.StatusCode)
		if res.RetryAfter > 0 {
			ev = ev.Dur("retry_after", res.RetryAfter)
		}
		ev.Err(res.Err).Msg("Discord delivery failed")
	}
	return res
}

// classifyHTTPStatusCode maps a Discord error status to an Outcome.
func classifyHTTPStatusCode(code int) Outcome {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return PermissionDenied
	case code == http.StatusNotFound:
		return NotFound
	default:
		return Failed
	}
}

// parseRetryAfter reads Discord's Retry-After header, which is in seconds and
// may carry a fraction.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
