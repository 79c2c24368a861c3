// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import (
	"errors"
	"fmt"

	"github.com/toeirei/keepsake/internal/logging"
)

// Op names the step that failed.
type Op string

const (
	OpRead   Op = "read"   // store.Get failed during load
	OpDecode Op = "decode" // stored value could not be decoded
	OpEncode Op = "encode" // new value could not be encoded
	OpWrite  Op = "write"  // store.Set failed during write-through
)

// ErrClosed is reported when an update happens after Close; the value is
// kept in memory but no longer persisted.
var ErrClosed = errors.New("state: closed")

// Error describes a recovered persistence failure. It is never returned to
// callers of Get, Set or Update; it is handed to the ErrorHandler instead.
type Error struct {
	Op  Op
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorHandler receives recovered failures. It must not call back into the
// Persisted that reported the error.
type ErrorHandler func(*Error)

// LogErrors is the default ErrorHandler: it logs a warning and moves on.
func LogErrors(e *Error) {
	switch e.Op {
	case OpDecode:
		logging.Warnf("ignoring undecodable stored value for %q, using default: %v", e.Key, e.Err)
	case OpWrite:
		logging.Warnf("write-through for %q failed, value kept in memory only: %v", e.Key, e.Err)
	default:
		logging.Warnf("%v", e)
	}
}
