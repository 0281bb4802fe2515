// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// noConfigFile points CONFIG_PATH at a missing file and moves into an empty
// directory so no default path resolves.
func noConfigFile(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Chdir(t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Kick.APIBaseURL != "https://kick.com" {
		t.Errorf("Kick.APIBaseURL = %q", cfg.Kick.APIBaseURL)
	}
	if cfg.Kick.Timeout != 15*time.Second {
		t.Errorf("Kick.Timeout = %v, want 15s", cfg.Kick.Timeout)
	}
	if !strings.Contains(cfg.Kick.UserAgent, "Mozilla/5.0") {
		t.Errorf("Kick.UserAgent should be a browser user agent, got %q", cfg.Kick.UserAgent)
	}
	if cfg.Scheduler.MinInterval != 30*time.Second {
		t.Errorf("Scheduler.MinInterval = %v, want 30s", cfg.Scheduler.MinInterval)
	}
	if cfg.Scheduler.DefaultInterval != time.Minute || cfg.Scheduler.ErrorBackoff != time.Minute {
		t.Errorf("Scheduler default/backoff = %v/%v, want 1m/1m", cfg.Scheduler.DefaultInterval, cfg.Scheduler.ErrorBackoff)
	}
	if cfg.Scheduler.EntityDelay != 2*time.Second {
		t.Errorf("Scheduler.EntityDelay = %v, want 2s", cfg.Scheduler.EntityDelay)
	}
	if cfg.Store.Backend != "badger" {
		t.Errorf("Store.Backend = %q, want badger", cfg.Store.Backend)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	noConfigFile(t)
	t.Setenv("DISCORD_BOT_TOKEN", "secret-token")
	t.Setenv("KICK_TIMEOUT", "5s")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Discord.BotToken != "secret-token" {
		t.Errorf("Discord.BotToken = %q", cfg.Discord.BotToken)
	}
	if cfg.Kick.Timeout != 5*time.Second {
		t.Errorf("Kick.Timeout = %v, want 5s", cfg.Kick.Timeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
discord:
  dry_run: true
scheduler:
  entity_delay: 500ms
store:
  backend: memory
server:
  port: 8181
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "8282")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if !cfg.Discord.DryRun {
		t.Error("Discord.DryRun should come from the file")
	}
	if cfg.Scheduler.EntityDelay != 500*time.Millisecond {
		t.Errorf("Scheduler.EntityDelay = %v, want 500ms", cfg.Scheduler.EntityDelay)
	}
	if cfg.Server.Port != 8282 {
		t.Errorf("env should override file: Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Kick.APIBaseURL != "https://kick.com" {
		t.Errorf("defaults should survive: Kick.APIBaseURL = %q", cfg.Kick.APIBaseURL)
	}
}

func TestLoadWithKoanf_MissingToken(t *testing.T) {
	noConfigFile(t)
	t.Setenv("STORE_BACKEND", "memory")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "discord.bot_token") {
		t.Fatalf("expected bot token error, got %v", err)
	}
}

func TestLoadOffline_NoTokenNeeded(t *testing.T) {
	noConfigFile(t)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := LoadOffline()
	if err != nil {
		t.Fatalf("LoadOffline: %v", err)
	}
	if !cfg.Discord.DryRun {
		t.Error("LoadOffline should force discord.dry_run")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Discord.BotToken = "token"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with token", func(*Config) {}, ""},
		{"bad kick url", func(c *Config) { c.Kick.APIBaseURL = "kick.com" }, "kick.api_base_url"},
		{"kick timeout above cap", func(c *Config) { c.Kick.Timeout = 30 * time.Second }, "kick.timeout"},
		{"bad breaker ratio", func(c *Config) { c.Kick.Breaker.FailureRatio = 1.5 }, "failure_ratio"},
		{"dry run needs no token", func(c *Config) { c.Discord.BotToken = ""; c.Discord.DryRun = true }, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"badger needs path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"disabled server ignores port", func(c *Config) { c.Server.Enabled = false; c.Server.Port = 0 }, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative delay", func(c *Config) { c.Scheduler.EntityDelay = -time.Second }, "delays"},
		{"min interval below floor", func(c *Config) { c.Scheduler.MinInterval = 10 * time.Second }, "scheduler.min_interval"},
		{"min interval at floor", func(c *Config) { c.Scheduler.MinInterval = 30 * time.Second }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"DISCORD_BOT_TOKEN": "discord.bot_token",
		"KICK_API_BASE_URL": "kick.api_base_url",
		"HTTP_PORT":         "server.port",
		"STORE_PATH":        "store.path",
		"HOME":              "",
		"PATH":              "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if s.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", s.Addr())
	}
}
