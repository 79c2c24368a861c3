// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package kv

import (
	"fmt"

	"github.com/toeirei/keepsake/internal/db"
)

// Options selects and configures a durable store.
type Options struct {
	// Type is one of memory, file, sqlite, postgres or mysql.
	Type string
	// DSN is the file path for file/sqlite, or the server DSN.
	DSN string
	// Namespace, when set, prefixes every key.
	Namespace string
}

// Open builds the store described by opts.
func Open(opts Options) (Store, error) {
	var s Store
	switch opts.Type {
	case "", "memory":
		s = NewMemory()
	case "file":
		if opts.DSN == "" {
			return nil, fmt.Errorf("kv: file store requires a path")
		}
		fs, err := OpenFile(opts.DSN)
		if err != nil {
			return nil, err
		}
		s = fs
	case "sqlite", "postgres", "mysql":
		sqlStore, err := db.NewStoreFromDSN(opts.Type, opts.DSN)
		if err != nil {
			return nil, err
		}
		s = sqlStore
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, opts.Type)
	}
	return WithNamespace(s, opts.Namespace), nil
}

// Close closes s when it holds resources.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
