// This file implements the users table accessor.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

var _ types.Table = (*usersTable)(nil)

type usersTable struct {
	backend *Backend
}

const selectUser = "SELECT id, name, email, currency, avatar, dateOfBirth, occupation, createdAt FROM users"

var userFilterColumns = map[string]string{
	"email": "email",
	"name":  "name",
}

// Get retrieves a user by ID.
func (ut *usersTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := ut.backend.conn()
	if err != nil {
		return nil, err
	}

	user, err := hydrateUser(db.QueryRow(selectUser+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return user, nil
}

// Set creates or updates a user. An empty id creates a user with a new
// UUID v7.
func (ut *usersTable) Set(id string, data any) (string, error) {
	user, ok := data.(*types.User)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := user.Validate(); err != nil {
		return "", err
	}
	db, err := ut.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		id = newUUID()
	}
	user.ID = id
	if user.CreatedAt.IsZero() {
		user.CreatedAt = ut.backend.now().UTC()
	}

	if err := upsertUser(db, user); err != nil {
		return "", err
	}
	return id, nil
}

// upsertUser writes every column of user. q may be a transaction.
func upsertUser(q execer, user *types.User) error {
	_, err := q.Exec(
		`INSERT INTO users (id, name, email, currency, avatar, dateOfBirth, occupation, createdAt)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name, email = excluded.email, currency = excluded.currency,
             avatar = excluded.avatar, dateOfBirth = excluded.dateOfBirth, occupation = excluded.occupation`,
		user.ID, user.Name, emptyAsNull(user.Email), emptyAsNull(user.Currency),
		nullable(user.Avatar), nullable(user.DateOfBirth), nullable(user.Occupation),
		formatTime(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("persisting user %s: %w", user.ID, err)
	}
	return nil
}

// Delete removes a user. Accounts, categories, transactions and every other
// row owned by the user cascade.
func (ut *usersTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := ut.backend.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns users matching the filter, ordered by name.
func (ut *usersTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, suffix, err := buildFilter(filter, userFilterColumns)
	if err != nil {
		return nil, err
	}
	db, err := ut.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(selectUser+where+" ORDER BY name ASC, id ASC"+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching users: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		user, err := hydrateUser(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating user: %w", err)
		}
		results = append(results, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return results, nil
}

// hydrateUser converts a users row into a *types.User.
func hydrateUser(row rowScanner) (*types.User, error) {
	var u types.User
	var email, currency, avatar, dob, occupation, created sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &email, &currency, &avatar, &dob, &occupation, &created); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.Currency = currency.String
	u.Avatar = ptr(avatar)
	u.DateOfBirth = ptr(dob)
	u.Occupation = ptr(occupation)
	u.CreatedAt = parseTime(created)
	return &u, nil
}
