// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db provides the SQL backed durable key-value store. It supports
// SQLite, PostgreSQL and MySQL through Bun, applies embedded per-dialect
// migrations on open and offers engine-specific maintenance.
package db
