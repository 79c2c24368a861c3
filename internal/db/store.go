// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Entry is one row of kv_entries.
type Entry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Key       string    `bun:"entry_key,pk"`
	Value     string    `bun:"entry_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Store is a durable key-value store on top of a SQL database.
// It is safe for concurrent use.
type Store struct {
	bun    *bun.DB
	dbType string
	closed atomic.Bool
}

// BunDB exposes the underlying Bun handle, mainly for tests.
func (s *Store) BunDB() *bun.DB { return s.bun }

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool, error) {
	return s.GetContext(context.Background(), key)
}

// GetContext is Get with a caller supplied context.
func (s *Store) GetContext(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	var value string
	err := s.bun.NewSelect().
		Model((*Entry)(nil)).
		Column("entry_value").
		Where("entry_key = ?", key).
		Limit(1).
		Scan(ctx, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set inserts or replaces the value under key.
func (s *Store) Set(key, value string) error {
	return s.SetContext(context.Background(), key, value)
}

// SetContext is Set with a caller supplied context.
func (s *Store) SetContext(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	e := &Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	q := s.bun.NewInsert().Model(e)
	if s.bun.Dialect().Name() == dialect.MySQL {
		q = q.On("DUPLICATE KEY UPDATE").
			Set("entry_value = VALUES(entry_value)").
			Set("updated_at = VALUES(updated_at)")
	} else {
		q = q.On("CONFLICT (entry_key) DO UPDATE").
			Set("entry_value = EXCLUDED.entry_value").
			Set("updated_at = EXCLUDED.updated_at")
	}
	_, err := q.Exec(ctx)
	return MapDBError(err)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.bun.NewDelete().
		Model((*Entry)(nil)).
		Where("entry_key = ?", key).
		Exec(context.Background())
	return err
}

// Keys returns every key in ascending order.
func (s *Store) Keys() ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var keys []string
	err := s.bun.NewSelect().
		Model((*Entry)(nil)).
		Column("entry_key").
		Order("entry_key ASC").
		Scan(context.Background(), &keys)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Available reports whether the store has not been closed.
func (s *Store) Available() bool {
	return !s.closed.Load()
}

// Close releases the database handle. It is safe to call more than once.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.bun.Close()
}
