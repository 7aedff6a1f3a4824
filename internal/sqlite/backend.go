package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// dsnPragmas are applied to every pooled connection by the driver.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a single SQLite database file.
type Backend struct {
	mu     sync.RWMutex
	open   bool
	config types.Config
	db     *sql.DB
	log    zerolog.Logger
	now    func() time.Time
	tables map[string]types.Table

	migrator *Migrator
	report   *types.MigrationReport
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used by the backend and its migrator.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not open; call Open with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:    zerolog.Nop(),
		now:    time.Now,
		tables: make(map[string]types.Table),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// openDB opens the database file at path with foreign keys enforced. The
// pool is limited to one connection: the store has a single writer and
// SQLite serializes writes anyway.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		db.Close()
		return nil, fmt.Errorf("check foreign key pragma: %w", err)
	}
	if fk != 1 {
		db.Close()
		return nil, errors.New("sqlite foreign keys are disabled")
	}
	return db, nil
}

// Open opens (creating if needed) the database in config.DataDir, migrates
// it to the current schema and, when config.UserID is set and the
// installation is not yet initialized, seeds default reference data.
// No table is available until migration has finished.
// Returns ErrAlreadyOpen if already open.
func (b *Backend) Open(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := openDB(filepath.Join(dataDir, types.DatabaseFile))
	if err != nil {
		return err
	}

	ctx := context.Background()
	migrator := NewMigrator(db, b.log)
	migrator.SetBackupDir(dataDir)
	report, err := migrator.Run(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	if config.UserID != "" {
		if err := b.seedOnFirstStart(ctx, db, config.UserID); err != nil {
			db.Close()
			return err
		}
	}

	b.db = db
	b.config = config
	b.migrator = migrator
	b.report = report
	b.open = true

	b.tables[types.UsersTable] = &usersTable{backend: b}
	b.tables[types.AccountsTable] = &accountsTable{backend: b}
	b.tables[types.CategoriesTable] = &categoriesTable{backend: b}
	b.tables[types.SubcategoriesTable] = &subcategoriesTable{backend: b}
	b.tables[types.TransactionsTable] = &transactionsTable{backend: b}
	b.tables[types.BudgetsTable] = &budgetsTable{backend: b}

	return nil
}

// seedOnFirstStart seeds defaults unless the installation is initialized.
// A user that does not exist yet is not an error: the flag stays false and
// the next start tries again.
func (b *Backend) seedOnFirstStart(ctx context.Context, db *sql.DB, userID string) error {
	done, err := isInitialized(ctx, db)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	err = seedDefaults(ctx, db, userID, b.now())
	if errors.Is(err, types.ErrNotFound) {
		b.log.Warn().Str("user", userID).Msg("user not found; default data not seeded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	b.log.Info().Str("user", userID).Msg("seeded default categories")
	return nil
}

// Close releases the database connection. After Close, all operations
// return ErrStoreClosed. Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.open = false
	b.tables = make(map[string]types.Table)
	return nil
}

// conn returns the open database handle.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.open {
		return nil, types.ErrStoreClosed
	}
	return b.db, nil
}

// GetTable returns a Table for the specified table name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrStoreClosed if the backend is not open.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.open {
		return nil, types.ErrStoreClosed
	}
	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// WithTx runs fn inside one transaction. The transaction commits if fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
// fn must use tx for every statement.
func (b *Backend) WithTx(fn func(tx *sql.Tx) error) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			b.log.Error().Err(rerr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MigrationReport returns the report of the migration run performed by Open.
func (b *Backend) MigrationReport() *types.MigrationReport {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.report
}

// SchemaVersion returns the version recorded in the database.
func (b *Backend) SchemaVersion() (int, error) {
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	return currentVersion(context.Background(), db)
}

// TargetVersion returns the schema version this build migrates to.
func (b *Backend) TargetVersion() int {
	return NewMigrator(nil, b.log).TargetVersion()
}

// DeprecatedColumns lists the columns kept on disk but never read.
func (b *Backend) DeprecatedColumns() ([]types.DeprecatedColumn, error) {
	if _, err := b.conn(); err != nil {
		return nil, err
	}
	return b.migrator.DeprecatedColumns(context.Background())
}

// TransferFailures lists legacy transfer rows awaiting manual review.
func (b *Backend) TransferFailures() ([]types.TransferFailure, error) {
	if _, err := b.conn(); err != nil {
		return nil, err
	}
	return b.migrator.TransferFailures(context.Background())
}

// IsInitialized reports whether default reference data has been seeded.
func (b *Backend) IsInitialized() (bool, error) {
	db, err := b.conn()
	if err != nil {
		return false, err
	}
	return isInitialized(context.Background(), db)
}

// SeedDefaults inserts default categories and subcategories for userID if
// absent and sets the initialization flag. Repeating it inserts nothing.
func (b *Backend) SeedDefaults(userID string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return seedDefaults(context.Background(), db, userID, b.now())
}
