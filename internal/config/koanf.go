// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kickwatch/config.yaml",
	"/etc/kickwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Kick: KickConfig{
			APIBaseURL:        "https://kick.com",
			ChannelBaseURL:    "https://kick.com",
			UserAgent:         DefaultUserAgent,
			Timeout:           MaxKickTimeout,
			RequestsPerSecond: 2,
			Burst:             2,
			Breaker: BreakerConfig{
				MaxRequests:  3,
				MinRequests:  10,
				FailureRatio: 0.6,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
			},
		},
		Discord: DiscordConfig{
			APIBaseURL:        "https://discord.com/api/v10",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Scheduler: SchedulerConfig{
			MinInterval:     30 * time.Second,
			DefaultInterval: 60 * time.Second,
			ErrorBackoff:    60 * time.Second,
			EntityDelay:     2 * time.Second,
			ForceDelay:      1 * time.Second,
		},
		Store: StoreConfig{
			Backend: "badger",
			Path:    "/data/kickwatch",
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using the layered koanf providers and
// validates the result.
func LoadWithKoanf() (*Config, error) {
	return load(false)
}

// LoadOffline loads configuration for commands that never talk to Discord.
// Discord is forced into dry-run so a missing bot token is not an error.
func LoadOffline() (*Config, error) {
	return load(true)
}

func load(offline bool) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if offline {
		cfg.Discord.DryRun = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"kick_api_base_url":         "kick.api_base_url",
	"kick_channel_base_url":     "kick.channel_base_url",
	"kick_user_agent":           "kick.user_agent",
	"kick_timeout":              "kick.timeout",
	"kick_requests_per_second":  "kick.requests_per_second",
	"kick_burst":                "kick.burst",
	"kick_breaker_min_requests": "kick.breaker.min_requests",
	"kick_breaker_ratio":        "kick.breaker.failure_ratio",
	"kick_breaker_timeout":      "kick.breaker.timeout",

	"discord_bot_token":           "discord.bot_token",
	"discord_api_base_url":        "discord.api_base_url",
	"discord_timeout":             "discord.timeout",
	"discord_requests_per_second": "discord.requests_per_second",
	"discord_dry_run":             "discord.dry_run",

	"scheduler_min_interval":     "scheduler.min_interval",
	"scheduler_default_interval": "scheduler.default_interval",
	"scheduler_error_backoff":    "scheduler.error_backoff",
	"scheduler_entity_delay":     "scheduler.entity_delay",
	"scheduler_force_delay":      "scheduler.force_delay",

	"store_backend": "store.backend",
	"store_path":    "store.path",

	"http_enabled":        "server.enabled",
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"admin_token":         "server.admin_token",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
//
// Examples:
//   - DISCORD_BOT_TOKEN -> discord.bot_token
//   - KICK_TIMEOUT -> kick.timeout
//   - HTTP_PORT -> server.port
//   - STORE_PATH -> store.path
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
