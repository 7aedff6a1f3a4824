// This file implements default reference data seeding.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// defaultCategory describes a category to seed for a new user.
type defaultCategory struct {
	slug          string
	name          string
	kind          string
	icon          string
	color         string
	subcategories []defaultSubcategory
}

// defaultSubcategory describes a subcategory seeded under its category.
type defaultSubcategory struct {
	slug string
	name string
	icon string
}

// defaultCategories is the reference data every user starts with.
var defaultCategories = []defaultCategory{
	{
		slug: "food", name: "Food & Dining", kind: types.CategoryExpense, icon: "utensils", color: "#FF7043",
		subcategories: []defaultSubcategory{
			{"groceries", "Groceries", "shopping-basket"},
			{"restaurants", "Restaurants", "concierge-bell"},
			{"coffee", "Coffee", "coffee"},
		},
	},
	{
		slug: "transport", name: "Transportation", kind: types.CategoryExpense, icon: "car", color: "#42A5F5",
		subcategories: []defaultSubcategory{
			{"fuel", "Fuel", "gas-pump"},
			{"transit", "Public Transit", "bus"},
			{"taxi", "Taxi & Rideshare", "taxi"},
		},
	},
	{
		slug: "housing", name: "Housing", kind: types.CategoryExpense, icon: "home", color: "#8D6E63",
		subcategories: []defaultSubcategory{
			{"rent", "Rent", "key"},
			{"utilities", "Utilities", "bolt"},
			{"maintenance", "Maintenance", "tools"},
		},
	},
	{
		slug: "shopping", name: "Shopping", kind: types.CategoryExpense, icon: "shopping-bag", color: "#AB47BC",
		subcategories: []defaultSubcategory{
			{"clothing", "Clothing", "tshirt"},
			{"electronics", "Electronics", "laptop"},
		},
	},
	{
		slug: "entertainment", name: "Entertainment", kind: types.CategoryExpense, icon: "film", color: "#FFCA28",
		subcategories: []defaultSubcategory{
			{"movies", "Movies", "ticket-alt"},
			{"games", "Games", "gamepad"},
			{"events", "Events", "calendar"},
		},
	},
	{
		slug: "health", name: "Health", kind: types.CategoryExpense, icon: "heartbeat", color: "#EF5350",
		subcategories: []defaultSubcategory{
			{"pharmacy", "Pharmacy", "pills"},
			{"doctor", "Doctor", "stethoscope"},
			{"fitness", "Fitness", "dumbbell"},
		},
	},
	{
		slug: "education", name: "Education", kind: types.CategoryExpense, icon: "graduation-cap", color: "#26A69A",
	},
	{
		slug: "salary", name: "Salary", kind: types.CategoryIncome, icon: "briefcase", color: "#66BB6A",
	},
	{
		slug: "freelance", name: "Freelance", kind: types.CategoryIncome, icon: "laptop-code", color: "#9CCC65",
	},
	{
		slug: "investments", name: "Investments", kind: types.CategoryIncome, icon: "chart-line", color: "#29B6F6",
		subcategories: []defaultSubcategory{
			{"dividends", "Dividends", "coins"},
			{"interest", "Interest", "percent"},
		},
	},
	{
		slug: "gifts", name: "Gifts", kind: types.CategoryIncome, icon: "gift", color: "#EC407A",
	},
}

// seedNamespace scopes the deterministic ids of seeded rows.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/mesh-intelligence/pocketbook/seed"))

// seedID derives a stable id for a seeded row so that repeating the seed
// after a crash inserts nothing new.
func seedID(userID, slug string) string {
	return uuid.NewSHA1(seedNamespace, []byte(userID+"/"+slug)).String()
}

// seedDefaults inserts the default categories and subcategories for userID
// when absent and sets the initialization flag, all in one transaction.
// Returns ErrNotFound if the user does not exist.
func seedDefaults(ctx context.Context, db *sql.DB, userID string, now time.Time) error {
	if userID == "" {
		return types.ErrInvalidID
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("seeding for user %s: %w", userID, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking user %s: %w", userID, err)
	}

	created := formatTime(now)
	for _, dc := range defaultCategories {
		catID := seedID(userID, dc.slug)
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (id, userId, name, type, icon, color, createdAt)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			catID, userID, dc.name, dc.kind, dc.icon, dc.color, created,
		)
		if err != nil {
			return fmt.Errorf("seeding category %s: %w", dc.slug, err)
		}

		for _, sc := range dc.subcategories {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO subcategories (id, userId, categoryId, name, icon, createdAt)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				seedID(userID, dc.slug+"/"+sc.slug), userID, catID, sc.name, sc.icon, created,
			)
			if err != nil {
				return fmt.Errorf("seeding subcategory %s for %s: %w", sc.slug, dc.slug, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO app_settings (key, value) VALUES (?, 'true')
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingInitialized,
	)
	if err != nil {
		return fmt.Errorf("setting initialization flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}
	return nil
}

// isInitialized reads the initialization flag. An absent row means false.
func isInitialized(ctx context.Context, q querier) (bool, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM app_settings WHERE key = ?", settingInitialized).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading initialization flag: %w", err)
	}
	return value == "true" || value == "1", nil
}
