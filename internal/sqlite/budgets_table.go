// This file implements the budgets table accessor.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

var _ types.Table = (*budgetsTable)(nil)

type budgetsTable struct {
	backend *Backend
}

const selectBudget = "SELECT id, userId, categoryId, amount, budgetLimit, period, startDate, endDate, createdAt FROM budgets"

var budgetFilterColumns = map[string]string{
	"user_id":     "userId",
	"category_id": "categoryId",
	"period":      "period",
}

// Get retrieves a budget by ID.
func (bt *budgetsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := bt.backend.conn()
	if err != nil {
		return nil, err
	}

	budget, err := hydrateBudget(db.QueryRow(selectBudget+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting budget %s: %w", id, err)
	}
	return budget, nil
}

// Set creates or updates a budget.
func (bt *budgetsTable) Set(id string, data any) (string, error) {
	budget, ok := data.(*types.Budget)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := budget.Validate(); err != nil {
		return "", err
	}
	db, err := bt.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		id = newUUID()
	}
	budget.ID = id
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = bt.backend.now().UTC()
	}

	_, err = db.Exec(
		`INSERT INTO budgets (id, userId, categoryId, amount, budgetLimit, period, startDate, endDate, createdAt)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             categoryId = excluded.categoryId, amount = excluded.amount, budgetLimit = excluded.budgetLimit,
             period = excluded.period, startDate = excluded.startDate, endDate = excluded.endDate`,
		budget.ID, budget.UserID, budget.CategoryID, budget.Amount, budget.BudgetLimit,
		budget.Period, budget.StartDate, emptyAsNull(budget.EndDate), formatTime(budget.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting budget %s: %w", id, err)
	}
	return id, nil
}

// Delete removes a budget.
func (bt *budgetsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := bt.backend.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec("DELETE FROM budgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting budget %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns budgets matching the filter, newest start date first.
func (bt *budgetsTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, suffix, err := buildFilter(filter, budgetFilterColumns)
	if err != nil {
		return nil, err
	}
	db, err := bt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(selectBudget+where+" ORDER BY startDate DESC, id ASC"+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching budgets: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		budget, err := hydrateBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating budget: %w", err)
		}
		results = append(results, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budgets: %w", err)
	}
	return results, nil
}

// hydrateBudget converts a budgets row into a *types.Budget. A NULL
// budgetLimit, possible on rows written before the column had a default,
// reads as zero.
func hydrateBudget(row rowScanner) (*types.Budget, error) {
	var b types.Budget
	var limit decimal.NullDecimal
	var endDate, created sql.NullString
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &limit, &b.Period, &b.StartDate, &endDate, &created); err != nil {
		return nil, err
	}
	if limit.Valid {
		b.BudgetLimit = limit.Decimal
	}
	b.EndDate = endDate.String
	b.CreatedAt = parseTime(created)
	return &b, nil
}
