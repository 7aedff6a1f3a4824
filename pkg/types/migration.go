package types

import "errors"

// AppliedMigration names one schema version applied during a run.
type AppliedMigration struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
}

// TransferFailure records a legacy transfer row that could not be converted
// into a linked pair. The row is left as it was and retried on the next run.
type TransferFailure struct {
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

// MigrationReport summarizes one migrator run.
type MigrationReport struct {
	FromVersion        int                `json:"from_version"`
	ToVersion          int                `json:"to_version"`
	Applied            []AppliedMigration `json:"applied"`
	TransfersConverted int                `json:"transfers_converted"`
	TransferFailures   []TransferFailure  `json:"transfer_failures,omitempty"`
	// SnapshotPath is the JSONL copy of legacy rows taken before conversion.
	SnapshotPath string `json:"snapshot_path,omitempty"`
}

// UpToDate reports whether the run found nothing to do.
func (r *MigrationReport) UpToDate() bool {
	return len(r.Applied) == 0 && r.TransfersConverted == 0 && len(r.TransferFailures) == 0
}

// DeprecatedColumn is a column that is kept on disk but must never be read.
// SQLite cannot drop columns in the versions shipped on devices, so retired
// columns stay in place and are listed here instead.
type DeprecatedColumn struct {
	Table        string `json:"table"`
	Column       string `json:"column"`
	DeprecatedIn int    `json:"deprecated_in"`
	Reason       string `json:"reason"`
}

// Migration errors. Introspection and schema-change failures abort startup.
var (
	ErrSchemaIntrospection = errors.New("schema introspection failed")
	ErrSchemaChange        = errors.New("schema change failed")
	ErrSchemaTooNew        = errors.New("database schema is newer than this build")
	ErrTransferConversion  = errors.New("legacy transfer conversion failed")
)
