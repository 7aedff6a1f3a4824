package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account kinds.
const (
	AccountCash    = "cash"
	AccountBank    = "bank"
	AccountCard    = "card"
	AccountSavings = "savings"
)

// Account is a place money is held: a wallet, a bank account, a card.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks the fields required to persist an account.
func (a *Account) Validate() error {
	if a.UserID == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidName
	}
	return nil
}
