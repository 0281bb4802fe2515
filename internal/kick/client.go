// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package kick

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/metrics"
	"github.com/tomtom215/kickwatch/internal/models"
)

const (
	// maxBodySize bounds how much of a channel payload is read.
	maxBodySize = 2 << 20

	// maxErrorBodySize bounds how much of an error body ends up in logs.
	maxErrorBodySize = 1024

	channelsPath = "/api/v2/channels/"
)

// Fetcher is the contract the transition engine and command surface depend on.
type Fetcher interface {
	Fetch(ctx context.Context, username string) (*models.StreamInfo, error)
}

// Client fetches channel status from the public Kick API.
//
// The underlying *http.Client is created on first use and recreated after
// Close, so a long-lived Client always has a usable connection pool. All
// methods are safe for concurrent use.
type Client struct {
	baseURL     string
	channelBase string
	userAgent   string
	timeout     time.Duration
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[*models.StreamInfo]
	breakerName string

	mu        sync.Mutex
	http      *http.Client
	transport *http.Transport
}

// NewClient creates a Kick client from configuration.
func NewClient(cfg *config.KickConfig) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		channelBase: strings.TrimRight(cfg.ChannelBaseURL, "/"),
		userAgent:   cfg.UserAgent,
		timeout:     cfg.Timeout,
		breakerName: "kick-api",
	}
	if c.channelBase == "" {
		c.channelBase = c.baseURL
	}
	if c.timeout <= 0 || c.timeout > config.MaxKickTimeout {
		c.timeout = config.MaxKickTimeout
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	c.breaker = newBreaker(c.breakerName, cfg.Breaker)
	return c
}

// session returns the shared HTTP client, creating it when absent.
func (c *Client) session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.http == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConnsPerHost = 4
		transport.IdleConnTimeout = 90 * time.Second
		c.transport = transport
		c.http = &http.Client{Timeout: c.timeout, Transport: transport}
	}
	return c.http
}

// HasSession reports whether a connection pool is currently open.
func (c *Client) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.http != nil
}

// Close releases the connection pool. A later Fetch opens a new one.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	c.http = nil
	c.transport = nil
	return nil
}

// Fetch returns the normalized status of a channel.
//
// Errors are ErrInvalidUsername, ErrNotFound, or a *TransientError (which
// matches ErrTransient). Transient failures are logged here; callers only
// need to skip the channel for this cycle.
func (c *Client) Fetch(ctx context.Context, username string) (*models.StreamInfo, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return nil, ErrInvalidUsername
	}

	start := time.Now()
	info, err := c.execute(ctx, name)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordKickFetch("ok", elapsed)
	case errors.Is(err, ErrNotFound):
		metrics.RecordKickFetch("not_found", elapsed)
		logging.Ctx(ctx).Debug().Str("username", name).Msg("Kick channel not found")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordKickFetch("rejected", elapsed)
		err = &TransientError{Username: name, Reason: "circuit breaker open", Err: err}
		logging.Ctx(ctx).Debug().Err(err).Str("username", name).Msg("Kick fetch rejected by circuit breaker")
	default:
		metrics.RecordKickFetch("transient", elapsed)
		logging.Ctx(ctx).Warn().Err(err).Str("username", name).Dur("elapsed", elapsed).Msg("Kick fetch failed")
	}
	return info, err
}

func (c *Client) execute(ctx context.Context, name string) (*models.StreamInfo, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransientError{Username: name, Reason: "rate limiter wait", Err: err}
		}
	}
	info, err := c.breaker.Execute(func() (*models.StreamInfo, error) {
		return c.fetch(ctx, name)
	})
	recordBreakerResult(c.breaker, c.breakerName, err)
	return info, err
}

func (c *Client) fetch(ctx context.Context, name string) (*models.StreamInfo, error) {
	endpoint := c.baseURL + channelsPath + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("kick: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.session().Do(req)
	if err != nil {
		return nil, &TransientError{Username: name, Reason: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, &TransientError{Username: name, StatusCode: resp.StatusCode, Reason: "read body", Err: err}
		}
		info, err := ParseChannel(body, c.channelBase)
		if err != nil {
			return nil, &TransientError{Username: name, StatusCode: resp.StatusCode, Reason: "malformed payload", Err: err}
		}
		return info, nil

	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, ErrNotFound

	default:
		snippet := readBodyForError(resp.Body)
		return nil, &TransientError{
			Username:   name,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Reason:     "unexpected status",
			Err:        errors.New(snippet),
		}
	}
}

// readBodyForError returns a bounded, single-line excerpt of an error body.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	s := strings.Join(strings.Fields(string(body)), " ")
	if s == "" {
		return "(empty body)"
	}
	return s
}

// parseRetryAfter accepts delay-seconds; HTTP dates are ignored.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
