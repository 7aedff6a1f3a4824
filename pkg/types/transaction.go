package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format stored in date columns.
const DateLayout = "2006-01-02"

// Transaction kinds. TxTransfer only appears on rows written before linked
// pairs existed; new code never writes it.
const (
	TxDebit    = "debit"
	TxCredit   = "credit"
	TxTransfer = "transfer"
)

// Transaction is one movement of money on one account.
//
// A transfer between two accounts is a linked pair: a debit on the source
// account whose LinkedTransactionID names a credit on the destination
// account. Both legs share user, amount and date. The credit leg carries no
// link.
type Transaction struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	AccountID           string          `json:"account_id"`
	CategoryID          string          `json:"category_id,omitempty"`
	SubCategoryID       *string         `json:"sub_category_id,omitempty"`
	Type                string          `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Date                string          `json:"date"`
	Notes               string          `json:"notes,omitempty"`
	LinkedTransactionID *string         `json:"linked_transaction_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Validate checks a transaction before it is written. Legacy transfer rows
// are readable but cannot be created or updated.
func (t *Transaction) Validate() error {
	if t.UserID == "" || t.AccountID == "" {
		return ErrInvalidID
	}
	switch t.Type {
	case TxDebit, TxCredit:
	case TxTransfer:
		return ErrLegacyTransfer
	default:
		return ErrInvalidKind
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// IsLinkedDebit reports whether t is the source leg of a linked pair.
func (t *Transaction) IsLinkedDebit() bool {
	return t.Type == TxDebit && t.LinkedTransactionID != nil && *t.LinkedTransactionID != ""
}

// Transfer describes a move of funds between two of a user's accounts.
type Transfer struct {
	UserID        string
	FromAccountID string
	ToAccountID   string
	CategoryID    string
	Amount        decimal.Decimal
	Date          string
	Notes         string
}

// Validate checks the transfer before its pair is written.
func (tr Transfer) Validate() error {
	if tr.UserID == "" || tr.FromAccountID == "" || tr.ToAccountID == "" {
		return ErrInvalidID
	}
	if tr.FromAccountID == tr.ToAccountID {
		return ErrSameAccount
	}
	if !tr.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if _, err := time.Parse(DateLayout, tr.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Legs returns the debit and credit rows for the transfer, without ids.
func (tr Transfer) Legs() (debit, credit *Transaction) {
	now := time.Now().UTC()
	debit = &Transaction{
		UserID:     tr.UserID,
		AccountID:  tr.FromAccountID,
		CategoryID: tr.CategoryID,
		Type:       TxDebit,
		Amount:     tr.Amount,
		Date:       tr.Date,
		Notes:      tr.Notes,
		CreatedAt:  now,
	}
	credit = &Transaction{
		UserID:     tr.UserID,
		AccountID:  tr.ToAccountID,
		CategoryID: tr.CategoryID,
		Type:       TxCredit,
		Amount:     tr.Amount,
		Date:       tr.Date,
		Notes:      tr.Notes,
		CreatedAt:  now,
	}
	return debit, credit
}
