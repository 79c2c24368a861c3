// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"testing"
)

func TestMapDBError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		dup  bool
	}{
		{"mysql duplicate entry", errors.New("Error 1062: Duplicate entry 'x' for key 'PRIMARY'"), true},
		{"postgres unique violation", errors.New(`duplicate key value violates unique constraint "kv_entries_pkey" (SQLSTATE 23505)`), true},
		{"sqlite unique constraint", errors.New("UNIQUE constraint failed: kv_entries.entry_key"), true},
		{"network error", errors.New("connection reset by peer"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mapped := MapDBError(c.err)
			if got := errors.Is(mapped, ErrDuplicate); got != c.dup {
				t.Fatalf("MapDBError(%v) duplicate=%v, want %v", c.err, got, c.dup)
			}
			if !c.dup && mapped != c.err {
				t.Fatalf("expected non-duplicate error to pass through unchanged, got %v", mapped)
			}
		})
	}
	if MapDBError(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}
