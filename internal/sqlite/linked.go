package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// RecordTransfer writes a transfer as a linked pair in one transaction: a
// credit on the destination account, then a debit on the source account
// whose linkedTransactionId names the credit. This is the same shape the
// legacy transfer migration produces.
func (b *Backend) RecordTransfer(transfer types.Transfer) (debitID, creditID string, err error) {
	if err := transfer.Validate(); err != nil {
		return "", "", err
	}

	debit, credit := transfer.Legs()
	credit.ID = newUUID()
	debit.ID = newUUID()
	debit.LinkedTransactionID = &credit.ID

	err = b.WithTx(func(tx *sql.Tx) error {
		for _, accountID := range []string{transfer.FromAccountID, transfer.ToAccountID} {
			var owner string
			err := tx.QueryRow("SELECT userId FROM accounts WHERE id = ?", accountID).Scan(&owner)
			if err == sql.ErrNoRows {
				return fmt.Errorf("account %s: %w", accountID, types.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("checking account %s: %w", accountID, err)
			}
			if owner != transfer.UserID {
				return fmt.Errorf("account %s: %w", accountID, types.ErrInvalidData)
			}
		}

		if err := upsertTransaction(tx, credit); err != nil {
			return err
		}
		return upsertTransaction(tx, debit)
	})
	if err != nil {
		return "", "", err
	}
	return debit.ID, credit.ID, nil
}

// LinkedPair returns the debit and credit legs of the pair that id belongs
// to. id may name either leg. Returns ErrNotLinked for a standalone
// transaction, including unconverted legacy transfer rows.
func (b *Backend) LinkedPair(id string) (debit, credit *types.Transaction, err error) {
	if id == "" {
		return nil, nil, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return nil, nil, err
	}

	t, err := getTransaction(db, id)
	if err != nil {
		return nil, nil, err
	}

	if t.IsLinkedDebit() {
		credit, err = getTransaction(db, *t.LinkedTransactionID)
		if err != nil {
			return nil, nil, fmt.Errorf("credit leg of %s: %w", t.ID, err)
		}
		return t, credit, nil
	}

	if t.Type == types.TxCredit {
		debit, err = hydrateTransaction(db.QueryRow(
			selectTransaction+" WHERE linkedTransactionId = ? AND type = ?", t.ID, types.TxDebit,
		))
		if err == sql.ErrNoRows {
			return nil, nil, types.ErrNotLinked
		}
		if err != nil {
			return nil, nil, fmt.Errorf("debit leg of %s: %w", t.ID, err)
		}
		return debit, t, nil
	}

	return nil, nil, types.ErrNotLinked
}
