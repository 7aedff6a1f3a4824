package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// migration is one versioned step. Exactly one of schema or data is set.
//
// schema runs inside the transaction that records the version, so a schema
// step and its version bump commit together. data manages its own
// transactions and the version is recorded once it returns.
type migration struct {
	version int
	name    string
	schema  func(ctx context.Context, tx *sql.Tx) error
	data    func(m *Migrator, ctx context.Context, report *types.MigrationReport) error
}

// migrations is the ordered list of schema versions. Every step probes
// before it acts, so databases created before versioning existed (stored
// version 0) can run the whole list regardless of which columns they
// already have. Append only; never renumber.
var migrations = []migration{
	{version: 1, name: "baseline", schema: migrateBaseline},
	{version: 2, name: "user_profile_columns", schema: migrateUserProfile},
	{version: 3, name: "user_interests", schema: migrateUserInterests},
	{version: 4, name: "subcategories", schema: migrateSubcategories},
	{version: 5, name: "transaction_subcategory", schema: migrateTransactionSubcategory},
	{version: 6, name: "budget_limit", schema: migrateBudgetLimit},
	{version: 7, name: "linked_transactions", schema: migrateLinkedTransactions},
	{version: 8, name: "legacy_transfers", data: (*Migrator).convertLegacyTransfers},
	{version: 9, name: "deprecate_transfer_columns", schema: migrateDeprecateTransferColumns},
	{version: 10, name: "indexes", schema: migrateIndexes},
}

// versionLegacyTransfers is the version whose data step converts legacy
// transfer rows. Failed rows recorded by it are retried on later runs.
const versionLegacyTransfers = 8

// Migrator brings a database of any earlier revision up to the current
// schema. It only ever adds tables, columns and rows.
type Migrator struct {
	db         *sql.DB
	log        zerolog.Logger
	migrations []migration
	now        func() time.Time
	newID      func() string
	backupDir  string
}

// NewMigrator returns a Migrator for db using the built-in migration list.
func NewMigrator(db *sql.DB, log zerolog.Logger) *Migrator {
	return &Migrator{
		db:         db,
		log:        log.With().Str("component", "migrator").Logger(),
		migrations: migrations,
		now:        time.Now,
		newID:      newUUID,
	}
}

// SetBackupDir makes the legacy transfer conversion write a JSONL snapshot
// of the rows it rewrites into dir. An empty dir disables the snapshot.
func (m *Migrator) SetBackupDir(dir string) {
	m.backupDir = dir
}

// TargetVersion returns the version a fully migrated database records.
func (m *Migrator) TargetVersion() int {
	if len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].version
}

// CurrentVersion returns the stored schema version. A database without a
// version row reports 0, meaning its revision is unknown.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	return currentVersion(ctx, m.db)
}

func currentVersion(ctx context.Context, q querier) (int, error) {
	exists, err := tableExists(ctx, q, "schema_version")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	var v int
	err = q.QueryRowContext(ctx, "SELECT version FROM schema_version WHERE id = 1").Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading schema version: %w", types.ErrSchemaIntrospection, err)
	}
	return v, nil
}

// Run applies every migration newer than the stored version, in order. It
// stops at the first schema failure; versions applied before the failure
// stay committed. Legacy transfer rows that fail to convert do not stop the
// run: they are recorded and retried on the next run.
func (m *Migrator) Run(ctx context.Context) (*types.MigrationReport, error) {
	if err := execAll(ctx, m.db, bookkeepingDDL); err != nil {
		return nil, fmt.Errorf("creating migration bookkeeping: %w", err)
	}

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	target := m.TargetVersion()
	if current > target {
		return nil, fmt.Errorf("%w: stored version %d, supported %d", types.ErrSchemaTooNew, current, target)
	}

	report := &types.MigrationReport{FromVersion: current, ToVersion: current}
	convertedThisRun := false

	for _, mig := range m.migrations {
		if mig.version <= current {
			m.log.Debug().Int("version", mig.version).Str("name", mig.name).Msg("already applied")
			continue
		}

		if mig.data != nil {
			err = m.applyData(ctx, mig, report)
			convertedThisRun = true
		} else {
			err = m.applySchema(ctx, mig)
		}
		if err != nil {
			m.log.Error().Err(err).Int("version", mig.version).Str("name", mig.name).Msg("migration failed")
			return report, fmt.Errorf("migration %d (%s): %w", mig.version, mig.name, err)
		}

		report.Applied = append(report.Applied, types.AppliedMigration{Version: mig.version, Name: mig.name})
		report.ToVersion = mig.version
		m.log.Info().Int("version", mig.version).Str("name", mig.name).Msg("applied migration")
	}

	if !convertedThisRun && current >= versionLegacyTransfers {
		if err := m.retryFailedTransfers(ctx, report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// applySchema runs a schema step and records its version in one transaction.
func (m *Migrator) applySchema(ctx context.Context, mig migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := mig.schema(ctx, tx); err != nil {
		return err
	}
	if err := m.setVersion(ctx, tx, mig.version); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %w", types.ErrSchemaChange, err)
	}
	return nil
}

// applyData runs a data step, then records its version.
func (m *Migrator) applyData(ctx context.Context, mig migration, report *types.MigrationReport) error {
	if err := mig.data(m, ctx, report); err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := m.setVersion(ctx, tx, mig.version); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Migrator) setVersion(ctx context.Context, q querier, version int) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO schema_version (id, version, updatedAt) VALUES (1, ?, ?)
         ON CONFLICT(id) DO UPDATE SET version = excluded.version, updatedAt = excluded.updatedAt`,
		version, m.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: recording version %d: %w", types.ErrSchemaChange, version, err)
	}
	return nil
}

// DeprecatedColumns lists the columns kept on disk but never read.
func (m *Migrator) DeprecatedColumns(ctx context.Context) ([]types.DeprecatedColumn, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT tableName, columnName, deprecatedIn, reason FROM deprecated_columns ORDER BY tableName, columnName",
	)
	if err != nil {
		return nil, fmt.Errorf("querying deprecated columns: %w", err)
	}
	defer rows.Close()

	cols := []types.DeprecatedColumn{}
	for rows.Next() {
		var c types.DeprecatedColumn
		if err := rows.Scan(&c.Table, &c.Column, &c.DeprecatedIn, &c.Reason); err != nil {
			return nil, fmt.Errorf("scanning deprecated column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// Schema steps. Each one probes the live catalog before acting.

func migrateBaseline(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, baselineDDL)
}

func migrateUserProfile(ctx context.Context, tx *sql.Tx) error {
	for _, col := range []string{"avatar", "dateOfBirth", "occupation"} {
		if _, err := addColumnIfMissing(ctx, tx, "users", col, "TEXT"); err != nil {
			return err
		}
	}
	return nil
}

func migrateUserInterests(ctx context.Context, tx *sql.Tx) error {
	_, err := createTableIfMissing(ctx, tx, "user_interests", createUserInterests)
	return err
}

func migrateSubcategories(ctx context.Context, tx *sql.Tx) error {
	_, err := createTableIfMissing(ctx, tx, "subcategories", createSubcategories)
	return err
}

func migrateTransactionSubcategory(ctx context.Context, tx *sql.Tx) error {
	_, err := addColumnIfMissing(ctx, tx, "transactions", "subCategoryId", "TEXT REFERENCES subcategories(id)")
	return err
}

func migrateBudgetLimit(ctx context.Context, tx *sql.Tx) error {
	_, err := addColumnIfMissing(ctx, tx, "budgets", "budgetLimit", "REAL DEFAULT 0")
	return err
}

func migrateLinkedTransactions(ctx context.Context, tx *sql.Tx) error {
	_, err := addColumnIfMissing(ctx, tx, "transactions", "linkedTransactionId", "TEXT")
	return err
}

// migrateDeprecateTransferColumns registers whichever legacy transfer
// columns exist. The columns themselves stay: SQLite builds on older
// devices cannot drop them.
func migrateDeprecateTransferColumns(ctx context.Context, tx *sql.Tx) error {
	cols, err := tableColumns(ctx, tx, "transactions")
	if err != nil {
		return err
	}
	for _, col := range []string{colTransferFrom, colTransferTo} {
		if !cols[col] {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO deprecated_columns (tableName, columnName, deprecatedIn, reason)
             VALUES ('transactions', ?, ?, 'replaced by linked debit/credit pairs via linkedTransactionId')`,
			col, versionLegacyTransfers,
		)
		if err != nil {
			return fmt.Errorf("%w: registering deprecated column %s: %w", types.ErrSchemaChange, col, err)
		}
	}
	return nil
}

func migrateIndexes(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, indexDDL)
}
