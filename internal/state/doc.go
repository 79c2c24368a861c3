// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package state provides Persisted, a typed in-memory value that writes
// through to a durable key-value store on every update and is seeded from
// that store on creation.
//
// The in-memory copy is the source of truth for the running process. Durable
// storage is best effort: values that cannot be decoded on load fall back to
// the caller's default, and failed writes are reported to the error handler
// (by default, logged) without touching the in-memory value.
//
// Writes happen on a background goroutine owned by each Persisted. Only the
// newest value is written, so durable storage converges on the last update.
// Call Flush to wait for outstanding writes and Close to stop the writer.
package state
