package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// querier is satisfied by both *sql.DB and *sql.Tx. Probes run on whichever
// handle the caller holds so they see uncommitted DDL from the same migration.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tableColumns returns the set of column names on table. A missing table
// yields an empty set, not an error.
func tableColumns(ctx context.Context, q querier, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("%w: columns of %s: %w", types.ErrSchemaIntrospection, table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scanning columns of %s: %w", types.ErrSchemaIntrospection, table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating columns of %s: %w", types.ErrSchemaIntrospection, table, err)
	}
	return cols, nil
}

// tableExists reports whether a table named table is present.
func tableExists(ctx context.Context, q querier, table string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: table %s: %w", types.ErrSchemaIntrospection, table, err)
	}
	return n > 0, nil
}

// addColumnIfMissing runs ALTER TABLE ... ADD COLUMN when column is absent.
// It reports whether the column was added.
func addColumnIfMissing(ctx context.Context, q querier, table, column, definition string) (bool, error) {
	cols, err := tableColumns(ctx, q, table)
	if err != nil {
		return false, err
	}
	if cols[column] {
		return false, nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return false, fmt.Errorf("%w: adding %s.%s: %w", types.ErrSchemaChange, table, column, err)
	}
	return true, nil
}

// createTableIfMissing runs ddl when table is absent and reports whether it
// did.
func createTableIfMissing(ctx context.Context, q querier, table, ddl string) (bool, error) {
	exists, err := tableExists(ctx, q, table)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return false, fmt.Errorf("%w: creating %s: %w", types.ErrSchemaChange, table, err)
	}
	return true, nil
}

// execAll runs each statement in order, stopping at the first failure.
func execAll(ctx context.Context, q querier, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %s: %w", types.ErrSchemaChange, truncate(stmt, 60), err)
		}
	}
	return nil
}

// truncate shortens a statement for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
