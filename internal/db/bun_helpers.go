// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// rawRunner is satisfied by *bun.DB, *bun.Tx and *bun.Conn.
type rawRunner interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// ExecRaw runs a statement that returns no rows, such as the maintenance
// pragmas and VACUUM. Arguments use bun placeholders (?), so identifiers
// go through bun.Ident.
func ExecRaw(ctx context.Context, r rawRunner, query string, args ...interface{}) (sql.Result, error) {
	return r.NewRaw(query, args...).Exec(ctx)
}

// QueryRawInto runs query and scans the rows into dest. A slice dest
// collects a single column across all rows.
func QueryRawInto(ctx context.Context, r rawRunner, dest interface{}, query string, args ...interface{}) error {
	return r.NewRaw(query, args...).Scan(ctx, dest)
}
