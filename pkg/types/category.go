package types

import (
	"strings"
	"time"
)

// Category kinds.
const (
	CategoryExpense = "expense"
	CategoryIncome  = "income"
)

// Category groups transactions for reporting and budgeting. Categories are
// per user; defaults are seeded on first start.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields required to persist a category.
func (c *Category) Validate() error {
	if c.UserID == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	if c.Type != CategoryExpense && c.Type != CategoryIncome {
		return ErrInvalidKind
	}
	return nil
}

// Subcategory refines a Category. Deleting either the user or the parent
// category removes it.
type Subcategory struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Icon       string    `json:"icon,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the fields required to persist a subcategory.
func (s *Subcategory) Validate() error {
	if s.UserID == "" || s.CategoryID == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidName
	}
	return nil
}
