package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// legacyDDL is the layout written by releases that predate schema
// versioning: no version table, no profile columns, no subcategories and
// transfers stored as single rows with source and destination columns.
var legacyDDL = []string{
	`CREATE TABLE users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT,
    currency TEXT,
    createdAt TEXT NOT NULL
);`,
	`CREATE TABLE accounts (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    balance REAL NOT NULL DEFAULT 0,
    currency TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`,
	`CREATE TABLE categories (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    icon TEXT,
    color TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`,
	`CREATE TABLE transactions (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    accountId TEXT,
    categoryId TEXT,
    type TEXT NOT NULL,
    amount REAL NOT NULL,
    date TEXT NOT NULL,
    notes TEXT,
    transferFrom TEXT,
    transferTo TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`,
	`CREATE TABLE budgets (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    categoryId TEXT NOT NULL,
    amount REAL NOT NULL,
    period TEXT NOT NULL,
    startDate TEXT NOT NULL,
    endDate TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`,
	`CREATE TABLE app_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`,
}

// legacyRows is the data of a typical pre-versioning install.
var legacyRows = []string{
	`INSERT INTO users (id, name, email, currency, createdAt)
     VALUES ('u1', 'Ana', 'ana@example.com', 'EUR', '2023-01-01T00:00:00.000Z')`,
	`INSERT INTO accounts (id, userId, name, type, balance, currency, createdAt) VALUES
     ('acc_a', 'u1', 'Checking', 'bank', 1200, 'EUR', '2023-01-01T00:00:00.000Z'),
     ('acc_b', 'u1', 'Savings', 'savings', 300, 'EUR', '2023-01-01T00:00:00.000Z')`,
	`INSERT INTO categories (id, userId, name, type, createdAt)
     VALUES ('cat_food', 'u1', 'Food', 'expense', '2023-01-01T00:00:00.000Z')`,
	`INSERT INTO transactions (id, userId, accountId, categoryId, type, amount, date, notes, transferFrom, transferTo, createdAt) VALUES
     ('t1', 'u1', NULL, NULL, 'transfer', 500, '2023-05-01', 'move to savings', 'acc_a', 'acc_b', '2023-05-01T10:00:00.000Z'),
     ('t2', 'u1', NULL, NULL, 'transfer', 40, '2023-05-02', NULL, 'acc_a', NULL, '2023-05-02T10:00:00.000Z'),
     ('t3', 'u1', 'acc_a', 'cat_food', 'debit', 12.5, '2023-05-03', 'lunch', NULL, NULL, '2023-05-03T10:00:00.000Z'),
     ('t4', 'u1', NULL, NULL, 'transfer', 75, '2023-05-04', NULL, '', 'acc_b', '2023-05-04T10:00:00.000Z')`,
	`INSERT INTO budgets (id, userId, categoryId, amount, period, startDate, createdAt)
     VALUES ('b1', 'u1', 'cat_food', 250, 'monthly', '2023-05-01', '2023-01-01T00:00:00.000Z')`,
}

// openTestDB opens an empty database file in a temp dir with the same
// connection settings the backend uses.
func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dir := t.TempDir()
	db, err := openDB(filepath.Join(dir, types.DatabaseFile))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dir
}

// writeLegacyDB creates a pre-versioning database in dir with legacyRows.
func writeLegacyDB(t *testing.T, dir string, extra ...string) {
	t.Helper()

	db, err := openDB(filepath.Join(dir, types.DatabaseFile))
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range legacyDDL {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	for _, stmt := range append(legacyRows, extra...) {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

// newTestMigrator returns a migrator that logs nowhere.
func newTestMigrator(db *sql.DB) *Migrator {
	return NewMigrator(db, zerolog.Nop())
}

// openTestBackend opens a backend on a fresh data dir.
func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	return openBackendAt(t, t.TempDir(), "")
}

// openBackendAt opens a backend on dir, seeding for userID when set.
func openBackendAt(t *testing.T, dir, userID string) *Backend {
	t.Helper()

	b := NewBackend()
	err := b.Open(types.Config{Backend: types.BackendSQLite, DataDir: dir, UserID: userID})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

// createUser inserts a user and returns its id.
func createUser(t *testing.T, b *Backend, name string) string {
	t.Helper()

	tbl, err := b.GetTable(types.UsersTable)
	require.NoError(t, err)
	id, err := tbl.Set("", &types.User{Name: name, Currency: "EUR"})
	require.NoError(t, err)
	return id
}

// createAccount inserts an account for userID and returns its id.
func createAccount(t *testing.T, b *Backend, userID, name string) string {
	t.Helper()

	tbl, err := b.GetTable(types.AccountsTable)
	require.NoError(t, err)
	id, err := tbl.Set("", &types.Account{
		UserID:  userID,
		Name:    name,
		Type:    types.AccountBank,
		Balance: decimal.Zero,
	})
	require.NoError(t, err)
	return id
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
