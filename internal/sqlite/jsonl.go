// This file writes JSONL snapshots of rows the migrator is about to rewrite.
package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// snapshotFileName names the snapshot taken at t. seq is 0 for the first
// snapshot in a given second and counts up for later ones.
func snapshotFileName(t time.Time, seq int) string {
	name := "legacy-transfers-" + t.UTC().Format("20060102T150405Z")
	if seq > 0 {
		name += "-" + strconv.Itoa(seq)
	}
	return name + ".jsonl"
}

// snapshotPath returns the first snapshot path for t in dir that does not
// exist yet.
func snapshotPath(dir string, t time.Time) (string, error) {
	for seq := 0; ; seq++ {
		path := filepath.Join(dir, snapshotFileName(t, seq))
		_, err := os.Lstat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking snapshot path: %w", err)
		}
	}
}

// snapshotTransfers writes every column of the pending legacy transfer rows,
// legacy columns included, to a new JSONL file in dir and returns its path.
// It returns "" when no row is pending.
func snapshotTransfers(ctx context.Context, q querier, dir string, at time.Time) (string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT * FROM transactions WHERE "+pendingTransferWhere+" ORDER BY id",
		types.TxTransfer,
	)
	if err != nil {
		return "", fmt.Errorf("querying rows for snapshot: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("reading snapshot columns: %w", err)
	}

	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return "", fmt.Errorf("scanning row for snapshot: %w", err)
		}
		rec := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("marshaling row for snapshot: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating rows for snapshot: %w", err)
	}

	if len(records) == 0 {
		return "", nil
	}

	path, err := snapshotPath(dir, at)
	if err != nil {
		return "", err
	}
	if err := writeJSONL(path, records); err != nil {
		return "", err
	}
	return path, nil
}
