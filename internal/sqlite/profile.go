package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// UpdateProfile writes the user's profile and replaces the user's interests
// in one transaction. If any statement fails nothing is changed.
func (b *Backend) UpdateProfile(user *types.User, interests []string) error {
	if user == nil || user.ID == "" {
		return types.ErrInvalidID
	}
	if err := user.Validate(); err != nil {
		return err
	}

	return b.WithTx(func(tx *sql.Tx) error {
		var created sql.NullString
		err := tx.QueryRow("SELECT createdAt FROM users WHERE id = ?", user.ID).Scan(&created)
		if err == sql.ErrNoRows {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking user %s: %w", user.ID, err)
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = parseTime(created)
		}

		if err := upsertUser(tx, user); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM user_interests WHERE userId = ?", user.ID); err != nil {
			return fmt.Errorf("clearing interests for %s: %w", user.ID, err)
		}

		now := formatTime(b.now())
		seen := make(map[string]bool)
		for _, interest := range interests {
			interest = strings.TrimSpace(interest)
			if interest == "" || seen[interest] {
				continue
			}
			seen[interest] = true
			_, err := tx.Exec(
				"INSERT INTO user_interests (id, userId, interest, createdAt) VALUES (?, ?, ?, ?)",
				newUUID(), user.ID, interest, now,
			)
			if err != nil {
				return fmt.Errorf("adding interest %q for %s: %w", interest, user.ID, err)
			}
		}
		return nil
	})
}

// Interests returns the user's interests in insertion order.
func (b *Backend) Interests(userID string) ([]types.UserInterest, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT id, userId, interest, createdAt FROM user_interests WHERE userId = ? ORDER BY createdAt, rowid",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying interests for %s: %w", userID, err)
	}
	defer rows.Close()

	interests := []types.UserInterest{}
	for rows.Next() {
		var ui types.UserInterest
		var created sql.NullString
		if err := rows.Scan(&ui.ID, &ui.UserID, &ui.Interest, &created); err != nil {
			return nil, fmt.Errorf("scanning interest: %w", err)
		}
		ui.CreatedAt = parseTime(created)
		interests = append(interests, ui)
	}
	return interests, rows.Err()
}
