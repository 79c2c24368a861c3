// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package kv defines the durable key-value store used to persist client
// state between runs, together with the small in-process implementations.
// SQL backed stores live in package db.
package kv

import "errors"

var (
	// ErrUnavailable is returned by stores that cannot serve requests, for
	// example after they were closed.
	ErrUnavailable = errors.New("kv: store unavailable")
	// ErrUnknownType is returned by Open for an unsupported store type.
	ErrUnknownType = errors.New("kv: unknown store type")
)

// Store is the minimal durable store: a string value per string key.
// Get reports ok=false when no value exists under key.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Availability is implemented by stores that can report whether they are
// usable right now.
type Availability interface {
	Available() bool
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys() ([]string, error)
}

// Deleter is implemented by stores that can remove a key.
type Deleter interface {
	Delete(key string) error
}

// IsAvailable reports whether s can be used for persistence. A nil store is
// never available; stores without the Availability capability always are.
func IsAvailable(s Store) bool {
	if s == nil {
		return false
	}
	if a, ok := s.(Availability); ok {
		return a.Available()
	}
	return true
}
