// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package config loads Kickwatch configuration.
//
// Configuration is layered (lowest to highest priority):
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file from CONFIG_PATH, ./config.yaml or /etc/kickwatch/config.yaml
//  3. Environment variables (see envTransformFunc for the mapping)
//
// Example config.yaml:
//
//	kick:
//	  api_base_url: https://kick.com
//	  timeout: 15s
//	discord:
//	  bot_token: "..."
//	store:
//	  path: /data/kickwatch
//	server:
//	  port: 8080
//	  admin_token: "..."
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/kickwatch/internal/models"
)

// MinSchedulerInterval is the lowest accepted scheduler.min_interval.
const MinSchedulerInterval = time.Duration(models.MinCheckIntervalSeconds) * time.Second

// MaxKickTimeout caps a single upstream fetch.
const MaxKickTimeout = 15 * time.Second

// DefaultUserAgent identifies requests as a desktop browser; the public
// channel endpoint rejects obvious bot user agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Kick      KickConfig      `koanf:"kick"`
	Discord   DiscordConfig   `koanf:"discord"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Store     StoreConfig     `koanf:"store"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// KickConfig configures the upstream Kick API client.
type KickConfig struct {
	APIBaseURL        string        `koanf:"api_base_url"`
	ChannelBaseURL    string        `koanf:"channel_base_url"`
	UserAgent         string        `koanf:"user_agent"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	Breaker           BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the Kick API circuit breaker.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
}

// DiscordConfig configures the Discord REST delivery client.
type DiscordConfig struct {
	BotToken          string        `koanf:"bot_token"`
	APIBaseURL        string        `koanf:"api_base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	// DryRun logs notifications instead of calling Discord.
	DryRun bool `koanf:"dry_run"`
}

// SchedulerConfig controls check pacing.
type SchedulerConfig struct {
	MinInterval     time.Duration `koanf:"min_interval"`
	DefaultInterval time.Duration `koanf:"default_interval"`
	ErrorBackoff    time.Duration `koanf:"error_backoff"`
	EntityDelay     time.Duration `koanf:"entity_delay"`
	ForceDelay      time.Duration `koanf:"force_delay"`
}

// StoreConfig selects the configuration store backend.
type StoreConfig struct {
	// Backend is "badger" or "memory".
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

// ServerConfig configures the admin HTTP API.
type ServerConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	AdminToken        string        `koanf:"admin_token"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the admin API.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if err := validateBaseURL("kick.api_base_url", c.Kick.APIBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Kick.ChannelBaseURL != "" {
		if err := validateBaseURL("kick.channel_base_url", c.Kick.ChannelBaseURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Kick.Timeout <= 0 || c.Kick.Timeout > MaxKickTimeout {
		errs = append(errs, fmt.Errorf("kick.timeout must be in (0, %s], got %s", MaxKickTimeout, c.Kick.Timeout))
	}
	if c.Kick.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("kick.requests_per_second must not be negative"))
	}
	if c.Kick.Breaker.FailureRatio <= 0 || c.Kick.Breaker.FailureRatio > 1 {
		errs = append(errs, fmt.Errorf("kick.breaker.failure_ratio must be in (0, 1], got %v", c.Kick.Breaker.FailureRatio))
	}

	if !c.Discord.DryRun && c.Discord.BotToken == "" {
		errs = append(errs, errors.New("discord.bot_token is required (DISCORD_BOT_TOKEN) unless discord.dry_run is set"))
	}
	if err := validateBaseURL("discord.api_base_url", c.Discord.APIBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Discord.Timeout <= 0 {
		errs = append(errs, errors.New("discord.timeout must be positive"))
	}

	s := c.Scheduler
	if s.MinInterval <= 0 || s.DefaultInterval <= 0 || s.ErrorBackoff <= 0 {
		errs = append(errs, errors.New("scheduler intervals must be positive"))
	} else if s.MinInterval < MinSchedulerInterval {
		errs = append(errs, fmt.Errorf("scheduler.min_interval must be at least %s", MinSchedulerInterval))
	}
	if s.EntityDelay < 0 || s.ForceDelay < 0 {
		errs = append(errs, errors.New("scheduler delays must not be negative"))
	}

	switch c.Store.Backend {
	case "badger":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the badger backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("store.backend must be badger or memory, got %q", c.Store.Backend))
	}

	if c.Server.Enabled {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
		}
		if !c.Server.RateLimitDisabled && (c.Server.RateLimitReqs < 1 || c.Server.RateLimitWindow <= 0) {
			errs = append(errs, errors.New("server rate limit requires positive rate_limit_reqs and rate_limit_window"))
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func validateBaseURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}
