// Package sqlite implements the SQLite backend for pocketbook: connection
// setup, the versioned schema migrator, default data seeding and the table
// accessors.
package sqlite

// Bookkeeping tables owned by the migrator. They are created before any
// versioned migration runs.
const (
	createSchemaVersion = `CREATE TABLE IF NOT EXISTS schema_version (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL,
    updatedAt TEXT NOT NULL
);`

	createDeprecatedColumns = `CREATE TABLE IF NOT EXISTS deprecated_columns (
    tableName TEXT NOT NULL,
    columnName TEXT NOT NULL,
    deprecatedIn INTEGER NOT NULL,
    reason TEXT NOT NULL,
    PRIMARY KEY (tableName, columnName)
);`

	createMigrationFailures = `CREATE TABLE IF NOT EXISTS migration_failures (
    transactionId TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    error TEXT NOT NULL,
    recordedAt TEXT NOT NULL
);`
)

// bookkeepingDDL lists the migrator's own tables.
var bookkeepingDDL = []string{
	createSchemaVersion,
	createDeprecatedColumns,
	createMigrationFailures,
}

// Baseline tables (version 1). These match the layout of the first release,
// so on databases created before versioning every statement is a no-op.
const (
	createUsers = `CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT,
    currency TEXT,
    createdAt TEXT NOT NULL
);`

	createAccounts = `CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    balance REAL NOT NULL DEFAULT 0,
    currency TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`

	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    icon TEXT,
    color TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`

	createTransactions = `CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    accountId TEXT,
    categoryId TEXT,
    type TEXT NOT NULL,
    amount REAL NOT NULL,
    date TEXT NOT NULL,
    notes TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`

	createBudgets = `CREATE TABLE IF NOT EXISTS budgets (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    categoryId TEXT NOT NULL,
    amount REAL NOT NULL,
    period TEXT NOT NULL,
    startDate TEXT NOT NULL,
    endDate TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`

	createSubscriptions = `CREATE TABLE IF NOT EXISTS subscriptions (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    accountId TEXT,
    categoryId TEXT,
    name TEXT NOT NULL,
    amount REAL NOT NULL,
    billingCycle TEXT NOT NULL,
    nextBillingDate TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`

	createGoals = `CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    name TEXT NOT NULL,
    targetAmount REAL NOT NULL,
    currentAmount REAL NOT NULL DEFAULT 0,
    deadline TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`

	createAppSettings = `CREATE TABLE IF NOT EXISTS app_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
)

// baselineDDL lists the version 1 tables in dependency order.
var baselineDDL = []string{
	createUsers,
	createAccounts,
	createCategories,
	createTransactions,
	createBudgets,
	createSubscriptions,
	createGoals,
	createAppSettings,
}

// Tables introduced after the first release.
const (
	createUserInterests = `CREATE TABLE user_interests (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    interest TEXT NOT NULL,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE
);`

	createSubcategories = `CREATE TABLE subcategories (
    id TEXT PRIMARY KEY,
    userId TEXT NOT NULL,
    categoryId TEXT NOT NULL,
    name TEXT NOT NULL,
    icon TEXT,
    createdAt TEXT NOT NULL,
    FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (categoryId) REFERENCES categories(id) ON DELETE CASCADE
);`
)

// Index DDL for common queries (version 10).
var indexDDL = []string{
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(userId, date);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_linked ON transactions(linkedTransactionId);`,
	`CREATE INDEX IF NOT EXISTS idx_subcategories_category ON subcategories(categoryId);`,
	`CREATE INDEX IF NOT EXISTS idx_user_interests_user ON user_interests(userId);`,
}

// Legacy transfer columns on the transactions table. They are never read by
// current code and never dropped.
const (
	colTransferFrom = "transferFrom"
	colTransferTo   = "transferTo"
)

// Keys in app_settings.
const (
	settingInitialized = "initialized"
)
