// This file implements the transactions table accessor. Reads never select
// the deprecated transferFrom/transferTo columns.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

var _ types.Table = (*transactionsTable)(nil)

type transactionsTable struct {
	backend *Backend
}

const selectTransaction = `SELECT id, userId, accountId, categoryId, subCategoryId, type, amount, date, notes,
    linkedTransactionId, createdAt FROM transactions`

var transactionFilterColumns = map[string]string{
	"user_id":     "userId",
	"account_id":  "accountId",
	"category_id": "categoryId",
	"type":        "type",
	"date":        "date",
}

// Get retrieves a transaction by ID.
func (tt *transactionsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}
	return getTransaction(db, id)
}

// getTransaction reads one transaction through q.
func getTransaction(q rowQuerier, id string) (*types.Transaction, error) {
	t, err := hydrateTransaction(q.QueryRow(selectTransaction+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting transaction %s: %w", id, err)
	}
	return t, nil
}

// Set creates or updates a single debit or credit. Linked pairs are created
// with Backend.RecordTransfer; Set never changes a row's link. Updating a
// leg of a pair keeps both legs on the same user, type, amount and date: a
// change of user or type is rejected with ErrInvalidData, and a new amount
// or date is written to the other leg in the same transaction.
func (tt *transactionsTable) Set(id string, data any) (string, error) {
	t, ok := data.(*types.Transaction)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := t.Validate(); err != nil {
		return "", err
	}
	if id == "" && t.LinkedTransactionID != nil {
		return "", types.ErrInvalidData
	}

	if id == "" {
		id = newUUID()
	}
	t.ID = id
	if t.CreatedAt.IsZero() {
		t.CreatedAt = tt.backend.now().UTC()
	}

	err := tt.backend.WithTx(func(tx *sql.Tx) error {
		if err := checkSubcategory(tx, t); err != nil {
			return err
		}

		stored, err := getTransaction(tx, id)
		if err == types.ErrNotFound {
			return upsertTransaction(tx, t)
		}
		if err != nil {
			return err
		}

		partner, err := pairPartner(tx, stored)
		if err != nil {
			return err
		}
		if partner != "" {
			if t.Type != stored.Type || t.UserID != stored.UserID {
				return fmt.Errorf("transaction %s is a linked pair leg: %w", id, types.ErrInvalidData)
			}
			if _, err := tx.Exec(
				"UPDATE transactions SET amount = ?, date = ? WHERE id = ?",
				t.Amount, t.Date, partner,
			); err != nil {
				return fmt.Errorf("updating linked transaction %s: %w", partner, err)
			}
		}
		return upsertTransaction(tx, t)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// pairPartner returns the id of the other leg of t's linked pair, or "" when
// t is standalone.
func pairPartner(q rowQuerier, t *types.Transaction) (string, error) {
	if t.IsLinkedDebit() {
		return *t.LinkedTransactionID, nil
	}
	var debitID string
	err := q.QueryRow("SELECT id FROM transactions WHERE linkedTransactionId = ?", t.ID).Scan(&debitID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("finding linked debit for %s: %w", t.ID, err)
	}
	return debitID, nil
}

// checkSubcategory verifies that a transaction's subcategory sits under its
// category.
func checkSubcategory(q rowQuerier, t *types.Transaction) error {
	if t.SubCategoryID == nil || *t.SubCategoryID == "" {
		return nil
	}
	var parent string
	err := q.QueryRow("SELECT categoryId FROM subcategories WHERE id = ?", *t.SubCategoryID).Scan(&parent)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking subcategory %s: %w", *t.SubCategoryID, err)
	}
	if parent != t.CategoryID {
		return types.ErrCategoryMismatch
	}
	return nil
}

// upsertTransaction writes t. On conflict the link column is left as is.
func upsertTransaction(q execer, t *types.Transaction) error {
	_, err := q.Exec(
		`INSERT INTO transactions
             (id, userId, accountId, categoryId, subCategoryId, type, amount, date, notes, linkedTransactionId, createdAt)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             accountId = excluded.accountId, categoryId = excluded.categoryId,
             subCategoryId = excluded.subCategoryId, type = excluded.type, amount = excluded.amount,
             date = excluded.date, notes = excluded.notes`,
		t.ID, t.UserID, t.AccountID, emptyAsNull(t.CategoryID), nullable(t.SubCategoryID), t.Type,
		t.Amount, t.Date, emptyAsNull(t.Notes), nullable(t.LinkedTransactionID), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("persisting transaction %s: %w", t.ID, err)
	}
	return nil
}

// Delete removes a transaction. Deleting either leg of a linked pair
// removes both legs.
func (tt *transactionsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}

	return tt.backend.WithTx(func(tx *sql.Tx) error {
		t, err := getTransaction(tx, id)
		if err != nil {
			return err
		}

		ids := []string{t.ID}
		partner, err := pairPartner(tx, t)
		if err != nil {
			return err
		}
		if partner != "" {
			ids = append(ids, partner)
		}

		for _, del := range ids {
			if _, err := tx.Exec("DELETE FROM transactions WHERE id = ?", del); err != nil {
				return fmt.Errorf("deleting transaction %s: %w", del, err)
			}
		}
		return nil
	})
}

// Fetch returns transactions matching the filter, newest first.
func (tt *transactionsTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, suffix, err := buildFilter(filter, transactionFilterColumns)
	if err != nil {
		return nil, err
	}
	db, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(selectTransaction+where+" ORDER BY date DESC, createdAt DESC, id ASC"+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		t, err := hydrateTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating transaction: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return results, nil
}

// hydrateTransaction converts a transactions row into a *types.Transaction.
func hydrateTransaction(row rowScanner) (*types.Transaction, error) {
	var t types.Transaction
	var account, category, sub, notes, linked, created sql.NullString
	if err := row.Scan(&t.ID, &t.UserID, &account, &category, &sub, &t.Type, &t.Amount, &t.Date, &notes, &linked, &created); err != nil {
		return nil, err
	}
	t.AccountID = account.String
	t.CategoryID = category.String
	t.SubCategoryID = ptr(sub)
	t.Notes = notes.String
	t.LinkedTransactionID = ptr(linked)
	t.CreatedAt = parseTime(created)
	return &t, nil
}
