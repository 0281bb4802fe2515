// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

// Package store persists per-scope settings and watch records.
//
// A scope is stored as two independent documents: its settings and its
// streamer map. Each Update* call is an atomic read-modify-write of one
// document, so an operator command changing settings never clobbers state
// the scheduler writes to the streamer map, and vice versa.
//
// Mutators run inside the store's transaction and must not block: network
// calls belong outside, before or after the update.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/models"
)

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

var (
	// ErrNoChange may be returned by a mutator to end an update without
	// writing. The update then returns the unchanged document and a nil error.
	ErrNoChange = errors.New("no change")

	// ErrInvalidScope is returned for an empty scope ID.
	ErrInvalidScope = errors.New("scope id is required")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
)

// SettingsMutator edits settings in place.
type SettingsMutator func(s *models.ScopeSettings) error

// StreamersMutator edits the streamer map in place.
type StreamersMutator func(streamers map[string]models.WatchRecord) error

// Store is the configuration store contract.
type Store interface {
	// Get returns the scope, or a fresh default scope when nothing is stored.
	Get(ctx context.Context, scopeID string) (*models.Scope, error)

	// List returns every stored scope ordered by ID.
	List(ctx context.Context) ([]*models.Scope, error)

	// Set replaces both documents of a scope.
	Set(ctx context.Context, scope *models.Scope) error

	// UpdateSettings atomically applies fn to the scope's settings and
	// returns the stored result.
	UpdateSettings(ctx context.Context, scopeID string, fn SettingsMutator) (models.ScopeSettings, error)

	// UpdateStreamers atomically applies fn to the scope's streamer map and
	// returns the stored result.
	UpdateStreamers(ctx context.Context, scopeID string, fn StreamersMutator) (map[string]models.WatchRecord, error)

	// Clear removes everything stored for the scope.
	Clear(ctx context.Context, scopeID string) error

	// Close releases the backend.
	Close() error
}

// Open creates the store selected by cfg.
func Open(cfg *config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendBadger, "":
		return OpenBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func checkScope(ctx context.Context, scopeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if scopeID == "" {
		return ErrInvalidScope
	}
	return nil
}

// runMutator applies fn and reports whether the result must be written.
func runMutator[T any](fn func(T) error, v T) (bool, error) {
	if fn == nil {
		return false, nil
	}
	if err := fn(v); err != nil {
		if errors.Is(err, ErrNoChange) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
