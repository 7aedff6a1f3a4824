// This file implements the categories table accessor.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

var _ types.Table = (*categoriesTable)(nil)

type categoriesTable struct {
	backend *Backend
}

const selectCategory = "SELECT id, userId, name, type, icon, color, createdAt FROM categories"

var categoryFilterColumns = map[string]string{
	"user_id": "userId",
	"type":    "type",
	"name":    "name",
}

// Get retrieves a category by ID.
func (ct *categoriesTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	cat, err := hydrateCategory(db.QueryRow(selectCategory+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return cat, nil
}

// Set creates or updates a category.
func (ct *categoriesTable) Set(id string, data any) (string, error) {
	cat, ok := data.(*types.Category)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := cat.Validate(); err != nil {
		return "", err
	}
	db, err := ct.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		id = newUUID()
	}
	cat.ID = id
	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = ct.backend.now().UTC()
	}

	_, err = db.Exec(
		`INSERT INTO categories (id, userId, name, type, icon, color, createdAt)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name, type = excluded.type, icon = excluded.icon, color = excluded.color`,
		cat.ID, cat.UserID, cat.Name, cat.Type, emptyAsNull(cat.Icon), emptyAsNull(cat.Color), formatTime(cat.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting category %s: %w", id, err)
	}
	return id, nil
}

// Delete removes a category and, through the foreign key, its
// subcategories.
func (ct *categoriesTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns categories matching the filter, ordered by type then name.
func (ct *categoriesTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, suffix, err := buildFilter(filter, categoryFilterColumns)
	if err != nil {
		return nil, err
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(selectCategory+where+" ORDER BY type ASC, name ASC"+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		cat, err := hydrateCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating category: %w", err)
		}
		results = append(results, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return results, nil
}

// hydrateCategory converts a categories row into a *types.Category.
func hydrateCategory(row rowScanner) (*types.Category, error) {
	var c types.Category
	var icon, color, created sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &icon, &color, &created); err != nil {
		return nil, err
	}
	c.Icon = icon.String
	c.Color = color.String
	c.CreatedAt = parseTime(created)
	return &c, nil
}
