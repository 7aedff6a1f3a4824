package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// pendingTransferWhere selects legacy transfer rows with both legs set that
// have not been converted yet. Its only argument is types.TxTransfer.
const pendingTransferWhere = `type = ?
    AND transferFrom IS NOT NULL AND transferFrom <> ''
    AND transferTo IS NOT NULL AND transferTo <> ''
    AND linkedTransactionId IS NULL`

// legacyTransfer is a transfer row still stored as one ambiguous row with
// source and destination columns.
type legacyTransfer struct {
	id   string
	from string
	to   string
}

// convertLegacyTransfers rewrites every unconverted legacy transfer row as a
// linked debit/credit pair. It is a no-op unless the transactions table
// still carries both legacy columns.
//
// Only rows still typed transfer and not yet linked are selected, so a run
// interrupted part way resumes without converting any row twice. A row that
// fails is logged, recorded in migration_failures and skipped.
func (m *Migrator) convertLegacyTransfers(ctx context.Context, report *types.MigrationReport) error {
	cols, err := tableColumns(ctx, m.db, "transactions")
	if err != nil {
		return err
	}
	if !cols[colTransferFrom] || !cols[colTransferTo] {
		m.log.Debug().Msg("no legacy transfer columns")
		return nil
	}

	pending, err := m.pendingTransfers(ctx)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		m.log.Info().Int("rows", len(pending)).Msg("converting legacy transfers")
		if m.backupDir != "" {
			path, err := snapshotTransfers(ctx, m.db, m.backupDir, m.now())
			if err != nil {
				return fmt.Errorf("snapshot legacy transfers: %w", err)
			}
			m.log.Info().Str("path", path).Msg("wrote legacy transfer snapshot")
			report.SnapshotPath = path
		}
	}

	for _, lt := range pending {
		creditID, err := m.convertTransfer(ctx, lt)
		if err != nil {
			m.log.Warn().Err(err).Str("transaction", lt.id).Msg("legacy transfer not converted")
			report.TransferFailures = append(report.TransferFailures, types.TransferFailure{
				TransactionID: lt.id,
				Error:         err.Error(),
			})
			if rerr := m.recordFailure(ctx, lt.id, err); rerr != nil {
				return rerr
			}
			continue
		}
		m.log.Debug().Str("debit", lt.id).Str("credit", creditID).Msg("converted legacy transfer")
		report.TransfersConverted++
	}
	return nil
}

// pendingTransfers selects the rows the conversion still has to touch. Rows
// missing either leg are never selected.
func (m *Migrator) pendingTransfers(ctx context.Context) ([]legacyTransfer, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT id, transferFrom, transferTo FROM transactions WHERE "+pendingTransferWhere+" ORDER BY date, id",
		types.TxTransfer,
	)
	if err != nil {
		return nil, fmt.Errorf("querying legacy transfers: %w", err)
	}
	defer rows.Close()

	var pending []legacyTransfer
	for rows.Next() {
		var lt legacyTransfer
		if err := rows.Scan(&lt.id, &lt.from, &lt.to); err != nil {
			return nil, fmt.Errorf("scanning legacy transfer: %w", err)
		}
		pending = append(pending, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy transfers: %w", err)
	}
	return pending, nil
}

// convertTransfer inserts the credit leg and turns the original row into the
// linked debit leg, in one transaction. It returns the credit leg's id.
func (m *Migrator) convertTransfer(ctx context.Context, lt legacyTransfer) (string, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	creditID := m.newID()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
             (id, userId, accountId, categoryId, subCategoryId, type, amount, date, notes, createdAt, linkedTransactionId)
         SELECT ?, userId, transferTo, categoryId, subCategoryId, ?, amount, date, notes, createdAt, NULL
         FROM transactions WHERE id = ? AND type = ?`,
		creditID, types.TxCredit, lt.id, types.TxTransfer,
	)
	if err != nil {
		return "", fmt.Errorf("%w: inserting credit leg: %w", types.ErrTransferConversion, err)
	}
	if err := expectOneRow(res, "inserting credit leg"); err != nil {
		return "", err
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE transactions SET type = ?, accountId = transferFrom, linkedTransactionId = ?
         WHERE id = ? AND type = ?`,
		types.TxDebit, creditID, lt.id, types.TxTransfer,
	)
	if err != nil {
		return "", fmt.Errorf("%w: updating debit leg: %w", types.ErrTransferConversion, err)
	}
	if err := expectOneRow(res, "updating debit leg"); err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM migration_failures WHERE transactionId = ?", lt.id); err != nil {
		return "", fmt.Errorf("clearing failure record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: committing: %w", types.ErrTransferConversion, err)
	}
	return creditID, nil
}

// recordFailure upserts a failure row. Losing track of a failed row is
// fatal to the run.
func (m *Migrator) recordFailure(ctx context.Context, id string, cause error) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO migration_failures (transactionId, version, error, recordedAt) VALUES (?, ?, ?, ?)
         ON CONFLICT(transactionId) DO UPDATE SET error = excluded.error, recordedAt = excluded.recordedAt`,
		id, versionLegacyTransfers, cause.Error(), m.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording failed transfer %s: %w", id, err)
	}
	return nil
}

// retryFailedTransfers reruns the conversion when earlier runs left failed
// rows behind.
func (m *Migrator) retryFailedTransfers(ctx context.Context, report *types.MigrationReport) error {
	var n int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migration_failures").Scan(&n); err != nil {
		return fmt.Errorf("counting failed transfers: %w", err)
	}
	if n == 0 {
		return nil
	}
	m.log.Info().Int("rows", n).Msg("retrying failed legacy transfers")
	return m.convertLegacyTransfers(ctx, report)
}

// TransferFailures lists legacy transfer rows awaiting manual review.
func (m *Migrator) TransferFailures(ctx context.Context) ([]types.TransferFailure, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT transactionId, error FROM migration_failures ORDER BY recordedAt, transactionId",
	)
	if err != nil {
		return nil, fmt.Errorf("querying failed transfers: %w", err)
	}
	defer rows.Close()

	failures := []types.TransferFailure{}
	for rows.Next() {
		var f types.TransferFailure
		if err := rows.Scan(&f.TransactionID, &f.Error); err != nil {
			return nil, fmt.Errorf("scanning failed transfer: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// expectOneRow fails the conversion unless exactly one row changed. Zero
// rows means another run already converted the row.
func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrTransferConversion, op, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: %s: %d rows affected", types.ErrTransferConversion, op, n)
	}
	return nil
}
