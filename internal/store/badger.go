// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/models"
)

// Key layout: scope:<id>:settings and scope:<id>:streamers.
const (
	scopeKeyPrefix   = "scope:"
	settingsSuffix   = ":settings"
	streamersSuffix  = ":streamers"
	maxConflictRetry = 10
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %s: %w", path, err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an already open database. Close closes db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func settingsKey(scopeID string) []byte {
	return []byte(scopeKeyPrefix + scopeID + settingsSuffix)
}

func streamersKey(scopeID string) []byte {
	return []byte(scopeKeyPrefix + scopeID + streamersSuffix)
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, scopeID string) (*models.Scope, error) {
	if err := checkScope(ctx, scopeID); err != nil {
		return nil, err
	}

	scope := models.NewScope(scopeID)
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := readJSON(txn, settingsKey(scopeID), &scope.Settings); err != nil {
			return err
		}
		_, err := readJSON(txn, streamersKey(scopeID), &scope.Streamers)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get scope %s: %w", scopeID, err)
	}
	finishScope(scope)
	return scope, nil
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context) ([]*models.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scopes := make(map[string]*models.Scope)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(scopeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			var id string
			var target any
			switch {
			case strings.HasSuffix(key, settingsSuffix):
				id = strings.TrimSuffix(strings.TrimPrefix(key, scopeKeyPrefix), settingsSuffix)
				target = &scopeFor(scopes, id).Settings
			case strings.HasSuffix(key, streamersSuffix):
				id = strings.TrimSuffix(strings.TrimPrefix(key, scopeKeyPrefix), streamersSuffix)
				target = &scopeFor(scopes, id).Streamers
			default:
				continue
			}

			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, target)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}

	out := make([]*models.Scope, 0, len(scopes))
	for _, sc := range scopes {
		finishScope(sc)
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func scopeFor(scopes map[string]*models.Scope, id string) *models.Scope {
	sc, ok := scopes[id]
	if !ok {
		sc = models.NewScope(id)
		scopes[id] = sc
	}
	return sc
}

// Set implements Store.
func (s *BadgerStore) Set(ctx context.Context, scope *models.Scope) error {
	if err := checkScope(ctx, scope.ID); err != nil {
		return err
	}

	settings, err := json.Marshal(scope.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	streamers, err := json.Marshal(nonNil(scope.Streamers))
	if err != nil {
		return fmt.Errorf("marshal streamers: %w", err)
	}

	return s.update(func(txn *badger.Txn) error {
		if err := txn.Set(settingsKey(scope.ID), settings); err != nil {
			return fmt.Errorf("set settings: %w", err)
		}
		if err := txn.Set(streamersKey(scope.ID), streamers); err != nil {
			return fmt.Errorf("set streamers: %w", err)
		}
		return nil
	})
}

// UpdateSettings implements Store.
func (s *BadgerStore) UpdateSettings(ctx context.Context, scopeID string, fn SettingsMutator) (models.ScopeSettings, error) {
	if err := checkScope(ctx, scopeID); err != nil {
		return models.ScopeSettings{}, err
	}

	var result models.ScopeSettings
	err := s.update(func(txn *badger.Txn) error {
		settings := models.DefaultScopeSettings()
		if _, err := readJSON(txn, settingsKey(scopeID), &settings); err != nil {
			return err
		}
		settings.Normalize()

		write, err := runMutator(fn, &settings)
		if err != nil {
			return err
		}
		result = settings
		if !write {
			return nil
		}

		data, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("marshal settings: %w", err)
		}
		return txn.Set(settingsKey(scopeID), data)
	})
	if err != nil {
		return models.ScopeSettings{}, err
	}
	return result, nil
}

// UpdateStreamers implements Store.
func (s *BadgerStore) UpdateStreamers(ctx context.Context, scopeID string, fn StreamersMutator) (map[string]models.WatchRecord, error) {
	if err := checkScope(ctx, scopeID); err != nil {
		return nil, err
	}

	var result map[string]models.WatchRecord
	err := s.update(func(txn *badger.Txn) error {
		streamers := make(map[string]models.WatchRecord)
		if _, err := readJSON(txn, streamersKey(scopeID), &streamers); err != nil {
			return err
		}
		streamers = nonNil(streamers)

		write, err := runMutator(fn, streamers)
		if err != nil {
			return err
		}
		result = models.CloneStreamers(streamers)
		if !write {
			return nil
		}

		data, err := json.Marshal(nonNil(streamers))
		if err != nil {
			return fmt.Errorf("marshal streamers: %w", err)
		}
		return txn.Set(streamersKey(scopeID), data)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear implements Store.
func (s *BadgerStore) Clear(ctx context.Context, scopeID string) error {
	if err := checkScope(ctx, scopeID); err != nil {
		return err
	}
	return s.update(func(txn *badger.Txn) error {
		if err := txn.Delete(settingsKey(scopeID)); err != nil {
			return fmt.Errorf("delete settings: %w", err)
		}
		if err := txn.Delete(streamersKey(scopeID)); err != nil {
			return fmt.Errorf("delete streamers: %w", err)
		}
		return nil
	})
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying when a concurrent
// transaction touched the same keys.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxConflictRetry; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		logging.Debug().Int("attempt", attempt).Msg("Store transaction conflict, retrying")
	}
	return fmt.Errorf("store update: %w", err)
}

// readJSON decodes key into v. It reports false when the key does not exist.
func readJSON(txn *badger.Txn, key []byte, v any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	}); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func finishScope(sc *models.Scope) {
	sc.Settings.Normalize()
	sc.Streamers = nonNil(sc.Streamers)
}

func nonNil(m map[string]models.WatchRecord) map[string]models.WatchRecord {
	if m == nil {
		return make(map[string]models.WatchRecord)
	}
	return m
}

var _ Store = (*BadgerStore)(nil)
