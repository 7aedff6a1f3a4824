// This file implements the subcategories table accessor.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

var _ types.Table = (*subcategoriesTable)(nil)

type subcategoriesTable struct {
	backend *Backend
}

const selectSubcategory = "SELECT id, userId, categoryId, name, icon, createdAt FROM subcategories"

var subcategoryFilterColumns = map[string]string{
	"user_id":     "userId",
	"category_id": "categoryId",
}

// Get retrieves a subcategory by ID.
func (st *subcategoriesTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := st.backend.conn()
	if err != nil {
		return nil, err
	}

	sub, err := hydrateSubcategory(db.QueryRow(selectSubcategory+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting subcategory %s: %w", id, err)
	}
	return sub, nil
}

// Set creates or updates a subcategory. The parent category must exist and
// belong to the same user.
func (st *subcategoriesTable) Set(id string, data any) (string, error) {
	sub, ok := data.(*types.Subcategory)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := sub.Validate(); err != nil {
		return "", err
	}
	db, err := st.backend.conn()
	if err != nil {
		return "", err
	}

	var owner string
	err = db.QueryRow("SELECT userId FROM categories WHERE id = ?", sub.CategoryID).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("checking category %s: %w", sub.CategoryID, err)
	}
	if owner != sub.UserID {
		return "", types.ErrInvalidData
	}

	if id == "" {
		id = newUUID()
	}
	sub.ID = id
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = st.backend.now().UTC()
	}

	_, err = db.Exec(
		`INSERT INTO subcategories (id, userId, categoryId, name, icon, createdAt)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET categoryId = excluded.categoryId, name = excluded.name, icon = excluded.icon`,
		sub.ID, sub.UserID, sub.CategoryID, sub.Name, emptyAsNull(sub.Icon), formatTime(sub.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting subcategory %s: %w", id, err)
	}
	return id, nil
}

// Delete removes a subcategory.
func (st *subcategoriesTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := st.backend.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec("DELETE FROM subcategories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting subcategory %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns subcategories matching the filter, ordered by name.
func (st *subcategoriesTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, suffix, err := buildFilter(filter, subcategoryFilterColumns)
	if err != nil {
		return nil, err
	}
	db, err := st.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(selectSubcategory+where+" ORDER BY name ASC, id ASC"+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching subcategories: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		sub, err := hydrateSubcategory(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating subcategory: %w", err)
		}
		results = append(results, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subcategories: %w", err)
	}
	return results, nil
}

func hydrateSubcategory(row rowScanner) (*types.Subcategory, error) {
	var s types.Subcategory
	var icon, created sql.NullString
	if err := row.Scan(&s.ID, &s.UserID, &s.CategoryID, &s.Name, &icon, &created); err != nil {
		return nil, err
	}
	s.Icon = icon.String
	s.CreatedAt = parseTime(created)
	return &s, nil
}
