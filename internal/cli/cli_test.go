package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// env holds the directories of one CLI test installation.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv("POCKET_USER_ID", "")
	t.Setenv("POCKET_LOCALE", "")
	t.Setenv("POCKET_DATA_DIR", "")
	root := t.TempDir()
	return env{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes pocket with the env's directories and returns stdout, stderr
// and the exit code.
func (e env) run(args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := run(NewRootCmd(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// mustRun runs args and fails the test unless the exit code is 0.
func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := e.run(args...)
	require.Equal(t, exitSuccess, code, "pocket %v: %s", args, errOut)
	return out
}

// writeLegacyDB creates a database in the layout written before schema
// versioning, with one legacy transfer row.
func (e env) writeLegacyDB(t *testing.T) {
	t.Helper()
	require.NoError(t, os.MkdirAll(e.dataDir, 0o755))

	db, err := sql.Open("sqlite", filepath.Join(e.dataDir, types.DatabaseFile))
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE users (id TEXT PRIMARY KEY, name TEXT NOT NULL, email TEXT, currency TEXT, createdAt TEXT NOT NULL)`,
		`CREATE TABLE accounts (id TEXT PRIMARY KEY, userId TEXT NOT NULL, name TEXT NOT NULL, type TEXT NOT NULL,
		    balance REAL NOT NULL DEFAULT 0, currency TEXT, createdAt TEXT NOT NULL)`,
		`CREATE TABLE categories (id TEXT PRIMARY KEY, userId TEXT NOT NULL, name TEXT NOT NULL, type TEXT NOT NULL,
		    icon TEXT, color TEXT, createdAt TEXT NOT NULL)`,
		`CREATE TABLE transactions (id TEXT PRIMARY KEY, userId TEXT NOT NULL, accountId TEXT, categoryId TEXT,
		    type TEXT NOT NULL, amount REAL NOT NULL, date TEXT NOT NULL, notes TEXT, transferFrom TEXT, transferTo TEXT,
		    createdAt TEXT NOT NULL)`,
		`CREATE TABLE budgets (id TEXT PRIMARY KEY, userId TEXT NOT NULL, categoryId TEXT NOT NULL, amount REAL NOT NULL,
		    period TEXT NOT NULL, startDate TEXT NOT NULL, endDate TEXT, createdAt TEXT NOT NULL)`,
		`CREATE TABLE app_settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`INSERT INTO users VALUES ('u1', 'Ana', NULL, 'EUR', '2023-01-01T00:00:00.000Z')`,
		`INSERT INTO accounts VALUES
		    ('acc_a', 'u1', 'Checking', 'bank', 0, 'EUR', '2023-01-01T00:00:00.000Z'),
		    ('acc_b', 'u1', 'Savings', 'savings', 0, 'EUR', '2023-01-01T00:00:00.000Z')`,
		`INSERT INTO transactions VALUES
		    ('t1', 'u1', NULL, NULL, 'transfer', 500, '2023-05-01', NULL, 'acc_a', 'acc_b', '2023-05-01T10:00:00.000Z')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Contains(t, out, "pocket "+Version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "init")
	assert.Contains(t, out, "schema version")

	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "data_dir: "+e.dataDir)

	_, err = os.Stat(filepath.Join(e.dataDir, types.DatabaseFile))
	assert.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "init")), &got))
	assert.Equal(t, false, got["config_written"], "existing config is kept")
}

func TestMigrate(t *testing.T) {
	t.Run("fresh database is up to date on the second run", func(t *testing.T) {
		e := newEnv(t)
		e.mustRun(t, "migrate")
		assert.Contains(t, e.mustRun(t, "migrate"), "up to date")
	})

	t.Run("legacy database is upgraded and reported", func(t *testing.T) {
		e := newEnv(t)
		e.writeLegacyDB(t)

		var report types.MigrationReport
		require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "migrate")), &report))
		assert.Equal(t, 0, report.FromVersion)
		assert.Equal(t, 1, report.TransfersConverted)
		assert.NotEmpty(t, report.Applied)
		assert.Equal(t, e.dataDir, filepath.Dir(report.SnapshotPath))

		var status statusReport
		require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "status")), &status))
		assert.Equal(t, status.TargetVersion, status.SchemaVersion)
		assert.Len(t, status.DeprecatedColumns, 2)
		assert.Empty(t, status.TransferFailures)
		assert.False(t, status.Initialized)

		var rows []types.Transaction
		require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "transactions", "--user", "u1")), &rows))
		require.Len(t, rows, 2)
		for _, tx := range rows {
			assert.NotEqual(t, types.TxTransfer, tx.Type)
		}
	})
}

func TestLedgerWorkflow(t *testing.T) {
	e := newEnv(t)

	userID := strings.TrimSpace(e.mustRun(t, "user", "add", "Ana", "--currency", "EUR"))
	require.NotEmpty(t, userID)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt),
		[]byte("backend: sqlite\nuser_id: "+userID+"\n"), 0o644))

	checking := strings.TrimSpace(e.mustRun(t, "account", "add", "Checking", "--balance", "1000"))
	savings := strings.TrimSpace(e.mustRun(t, "account", "add", "Savings", "--type", types.AccountSavings))

	assert.Contains(t, e.mustRun(t, "seed"), userID)
	assert.Contains(t, e.mustRun(t, "account", "list"), "1,000.00")

	var ids map[string]string
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "transfer",
		"--from", checking, "--to", savings, "--amount", "1234.5", "--date", "2024-03-01", "--notes", "rainy day")), &ids))
	require.NotEmpty(t, ids["debit_id"])
	require.NotEmpty(t, ids["credit_id"])

	out := e.mustRun(t, "transactions")
	assert.Contains(t, out, "1,234.50")
	assert.Contains(t, out, "rainy day")
	assert.Contains(t, out, ids["credit_id"], "debit leg shows its link")

	out = e.mustRun(t, "transactions", "--account", savings)
	assert.Contains(t, out, types.TxCredit)
	assert.NotContains(t, out, types.TxDebit)

	e.mustRun(t, "user", "profile", "--occupation", "nurse", "--interest", "hiking", "--interest", "chess")
	_, errOut, code := e.run("user", "profile", "--dob", "yesterday")
	assert.Equal(t, exitUserError, code, errOut)
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"status", "--bogus"}, exitUserError},
		{"invalid log level", []string{"--log-level", "loud", "status"}, exitUserError},
		{"seed without a user", []string{"seed"}, exitUserError},
		{"seed for unknown user", []string{"seed", "--user", "nobody"}, exitUserError},
		{"transfer to the same account", []string{"transfer", "--user", "u1", "--from", "a", "--to", "a", "--amount", "5"}, exitUserError},
		{"transfer with bad amount", []string{"transfer", "--user", "u1", "--from", "a", "--to", "b", "--amount", "ten"}, exitUserError},
		{"transfer between missing accounts", []string{"transfer", "--user", "u1", "--from", "a", "--to", "b", "--amount", "5"}, exitUserError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, errOut, code := e.run(tt.args...)
			assert.Equal(t, tt.want, code, errOut)
			assert.Contains(t, errOut, "Error:")
		})
	}
}

func TestExitCodes_SchemaTooNewIsUserError(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "init")

	db, err := sql.Open("sqlite", filepath.Join(e.dataDir, types.DatabaseFile))
	require.NoError(t, err)
	_, err = db.Exec("UPDATE schema_version SET version = 999")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, errOut, code := e.run("status")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "newer")
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		locale string
		amount string
		want   string
	}{
		{"en-US", "1234.5", "1,234.50"},
		{"en-US", "0.005", "0.01"},
		{"de", "1234.5", "1.234,50"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.amount, func(t *testing.T) {
			p := message.NewPrinter(language.MustParse(tt.locale))
			assert.Equal(t, tt.want, formatAmount(p, decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("POCKET_LOG_LEVEL", "")
	t.Setenv("POCKET_USER_ID", "")
	dir := t.TempDir()

	cfg, err := loadConfig(dir)
	require.NoError(t, err, "missing file is not an error")
	assert.Equal(t, types.BackendSQLite, cfg.GetString(cfgKeyBackend))
	assert.Equal(t, defaultLocale, cfg.GetString(cfgKeyLocale))

	written, err := writeConfigIfMissing(dir, configFile{Backend: types.BackendSQLite, UserID: "u1", LogLevel: "debug"})
	require.NoError(t, err)
	assert.True(t, written)

	cfg, err = loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "u1", cfg.GetString(cfgKeyUserID))
	assert.Equal(t, "debug", cfg.GetString(cfgKeyLogLevel))

	t.Setenv("POCKET_USER_ID", "u2")
	cfg, err = loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "u2", cfg.GetString(cfgKeyUserID), "environment overrides the file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("backend: [unclosed"), 0o644))
	_, err = loadConfig(dir)
	assert.Error(t, err)
}
