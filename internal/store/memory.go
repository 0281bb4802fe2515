// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/kickwatch/internal/models"
)

type memoryScope struct {
	settings  *models.ScopeSettings
	streamers map[string]models.WatchRecord
}

// MemoryStore implements Store in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu     sync.Mutex
	scopes map[string]*memoryScope
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]*memoryScope)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, scopeID string) (*models.Scope, error) {
	if err := checkScope(ctx, scopeID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.snapshot(scopeID, s.scopes[scopeID]), nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]*models.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]*models.Scope, 0, len(s.scopes))
	for id, ms := range s.scopes {
		out = append(out, s.snapshot(id, ms))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) snapshot(id string, ms *memoryScope) *models.Scope {
	sc := models.NewScope(id)
	if ms == nil {
		return sc
	}
	if ms.settings != nil {
		sc.Settings = *ms.settings
	}
	if ms.streamers != nil {
		sc.Streamers = models.CloneStreamers(ms.streamers)
	}
	return sc
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, scope *models.Scope) error {
	if err := checkScope(ctx, scope.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	settings := scope.Settings
	s.scopes[scope.ID] = &memoryScope{
		settings:  &settings,
		streamers: models.CloneStreamers(scope.Streamers),
	}
	return nil
}

// UpdateSettings implements Store.
func (s *MemoryStore) UpdateSettings(ctx context.Context, scopeID string, fn SettingsMutator) (models.ScopeSettings, error) {
	if err := checkScope(ctx, scopeID); err != nil {
		return models.ScopeSettings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ScopeSettings{}, ErrClosed
	}

	settings := models.DefaultScopeSettings()
	ms := s.scopes[scopeID]
	if ms != nil && ms.settings != nil {
		settings = *ms.settings
	}
	settings.Normalize()

	write, err := runMutator(fn, &settings)
	if err != nil {
		return models.ScopeSettings{}, err
	}
	if write {
		if ms == nil {
			ms = &memoryScope{}
			s.scopes[scopeID] = ms
		}
		stored := settings
		ms.settings = &stored
	}
	return settings, nil
}

// UpdateStreamers implements Store.
func (s *MemoryStore) UpdateStreamers(ctx context.Context, scopeID string, fn StreamersMutator) (map[string]models.WatchRecord, error) {
	if err := checkScope(ctx, scopeID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	ms := s.scopes[scopeID]
	var streamers map[string]models.WatchRecord
	if ms != nil && ms.streamers != nil {
		streamers = models.CloneStreamers(ms.streamers)
	} else {
		streamers = make(map[string]models.WatchRecord)
	}

	write, err := runMutator(fn, streamers)
	if err != nil {
		return nil, err
	}
	if write {
		if ms == nil {
			ms = &memoryScope{}
			s.scopes[scopeID] = ms
		}
		ms.streamers = models.CloneStreamers(streamers)
	}
	return models.CloneStreamers(streamers), nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, scopeID string) error {
	if err := checkScope(ctx, scopeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.scopes, scopeID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
