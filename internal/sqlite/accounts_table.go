// This file implements the accounts table accessor.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

var _ types.Table = (*accountsTable)(nil)

type accountsTable struct {
	backend *Backend
}

const selectAccount = "SELECT id, userId, name, type, balance, currency, createdAt FROM accounts"

var accountFilterColumns = map[string]string{
	"user_id": "userId",
	"type":    "type",
}

// Get retrieves an account by ID.
func (at *accountsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := at.backend.conn()
	if err != nil {
		return nil, err
	}

	acc, err := hydrateAccount(db.QueryRow(selectAccount+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting account %s: %w", id, err)
	}
	return acc, nil
}

// Set creates or updates an account.
func (at *accountsTable) Set(id string, data any) (string, error) {
	acc, ok := data.(*types.Account)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := acc.Validate(); err != nil {
		return "", err
	}
	db, err := at.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		id = newUUID()
	}
	acc.ID = id
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = at.backend.now().UTC()
	}

	_, err = db.Exec(
		`INSERT INTO accounts (id, userId, name, type, balance, currency, createdAt)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name, type = excluded.type, balance = excluded.balance, currency = excluded.currency`,
		acc.ID, acc.UserID, acc.Name, acc.Type, acc.Balance, emptyAsNull(acc.Currency), formatTime(acc.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting account %s: %w", id, err)
	}
	return id, nil
}

// Delete removes an account. Transactions that referenced it keep their
// accountId; history is never rewritten.
func (at *accountsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := at.backend.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec("DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns accounts matching the filter, ordered by name.
func (at *accountsTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, suffix, err := buildFilter(filter, accountFilterColumns)
	if err != nil {
		return nil, err
	}
	db, err := at.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(selectAccount+where+" ORDER BY name ASC, id ASC"+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		acc, err := hydrateAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating account: %w", err)
		}
		results = append(results, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return results, nil
}

// hydrateAccount converts an accounts row into a *types.Account.
func hydrateAccount(row rowScanner) (*types.Account, error) {
	var a types.Account
	var currency, created sql.NullString
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &currency, &created); err != nil {
		return nil, err
	}
	a.Currency = currency.String
	a.CreatedAt = parseTime(created)
	return &a, nil
}
