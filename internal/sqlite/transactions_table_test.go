package sqlite

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

type ledgerFixture struct {
	b        *Backend
	userID   string
	checking string
	savings  string
	txs      types.Table
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	b := openTestBackend(t)
	userID := createUser(t, b, "Ana")
	txs, err := b.GetTable(types.TransactionsTable)
	require.NoError(t, err)
	return &ledgerFixture{
		b:        b,
		userID:   userID,
		checking: createAccount(t, b, userID, "Checking"),
		savings:  createAccount(t, b, userID, "Savings"),
		txs:      txs,
	}
}

func (f *ledgerFixture) debit(amount int64, date string) *types.Transaction {
	return &types.Transaction{
		UserID:    f.userID,
		AccountID: f.checking,
		Type:      types.TxDebit,
		Amount:    decimal.NewFromInt(amount),
		Date:      date,
	}
}

func TestTransactionsTable_Set(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *ledgerFixture, tx *types.Transaction)
		wantErr error
	}{
		{
			name:   "valid debit",
			mutate: func(f *ledgerFixture, tx *types.Transaction) {},
		},
		{
			name:    "legacy transfer type is rejected",
			mutate:  func(f *ledgerFixture, tx *types.Transaction) { tx.Type = types.TxTransfer },
			wantErr: types.ErrLegacyTransfer,
		},
		{
			name:    "unknown type is rejected",
			mutate:  func(f *ledgerFixture, tx *types.Transaction) { tx.Type = "refund" },
			wantErr: types.ErrInvalidKind,
		},
		{
			name:    "zero amount is rejected",
			mutate:  func(f *ledgerFixture, tx *types.Transaction) { tx.Amount = decimal.Zero },
			wantErr: types.ErrInvalidAmount,
		},
		{
			name:    "bad date is rejected",
			mutate:  func(f *ledgerFixture, tx *types.Transaction) { tx.Date = "05/01/2023" },
			wantErr: types.ErrInvalidDate,
		},
		{
			name: "new row cannot carry a link",
			mutate: func(f *ledgerFixture, tx *types.Transaction) {
				other := "somewhere"
				tx.LinkedTransactionID = &other
			},
			wantErr: types.ErrInvalidData,
		},
		{
			name: "missing subcategory is not found",
			mutate: func(f *ledgerFixture, tx *types.Transaction) {
				sub := "missing"
				tx.SubCategoryID = &sub
			},
			wantErr: types.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			tx := f.debit(25, "2024-02-10")
			tt.mutate(f, tx)

			id, err := f.txs.Set("", tx)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := f.txs.Get(id)
			require.NoError(t, err)
			stored := got.(*types.Transaction)
			assert.Equal(t, f.checking, stored.AccountID)
			assert.True(t, decimal.NewFromInt(25).Equal(stored.Amount))
			assert.False(t, stored.CreatedAt.IsZero())
		})
	}
}

func TestTransactionsTable_SubcategoryMustMatchCategory(t *testing.T) {
	f := newLedgerFixture(t)
	require.NoError(t, f.b.SeedDefaults(f.userID))

	groceries := seedID(f.userID, "food/groceries")

	tx := f.debit(30, "2024-02-11")
	tx.CategoryID = seedID(f.userID, "transport")
	tx.SubCategoryID = &groceries
	_, err := f.txs.Set("", tx)
	assert.ErrorIs(t, err, types.ErrCategoryMismatch)

	tx.CategoryID = seedID(f.userID, "food")
	id, err := f.txs.Set("", tx)
	require.NoError(t, err)

	got, err := f.txs.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got.(*types.Transaction).SubCategoryID)
	assert.Equal(t, groceries, *got.(*types.Transaction).SubCategoryID)
}

func TestTransactionsTable_Fetch(t *testing.T) {
	f := newLedgerFixture(t)
	for _, date := range []string{"2024-01-05", "2024-01-20", "2024-01-12"} {
		_, err := f.txs.Set("", f.debit(10, date))
		require.NoError(t, err)
	}
	other := f.debit(99, "2024-01-01")
	other.AccountID = f.savings
	other.Type = types.TxCredit
	_, err := f.txs.Set("", other)
	require.NoError(t, err)

	rows, err := f.txs.Fetch(types.Filter{"account_id": f.checking})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01-20", rows[0].(*types.Transaction).Date, "newest first")
	assert.Equal(t, "2024-01-05", rows[2].(*types.Transaction).Date)

	rows, err = f.txs.Fetch(types.Filter{"user_id": f.userID, "limit": 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = f.txs.Fetch(types.Filter{"type": types.TxCredit})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = f.txs.Fetch(types.Filter{"amount": "10"})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
}

func TestRecordTransfer(t *testing.T) {
	f := newLedgerFixture(t)

	debitID, creditID, err := f.b.RecordTransfer(types.Transfer{
		UserID:        f.userID,
		FromAccountID: f.checking,
		ToAccountID:   f.savings,
		Amount:        decimal.RequireFromString("120.50"),
		Date:          "2024-03-01",
		Notes:         "rainy day",
	})
	require.NoError(t, err)

	for _, id := range []string{debitID, creditID} {
		debit, credit, err := f.b.LinkedPair(id)
		require.NoError(t, err)
		assert.Equal(t, debitID, debit.ID)
		assert.Equal(t, creditID, credit.ID)
		assert.Equal(t, f.checking, debit.AccountID)
		assert.Equal(t, f.savings, credit.AccountID)
		assert.True(t, debit.Amount.Equal(credit.Amount))
		assert.Equal(t, debit.Date, credit.Date)
		require.NotNil(t, debit.LinkedTransactionID)
		assert.Equal(t, creditID, *debit.LinkedTransactionID)
		assert.Nil(t, credit.LinkedTransactionID)
	}
}

func TestRecordTransfer_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, f *ledgerFixture, tr *types.Transfer)
		wantErr error
	}{
		{
			name:    "same account",
			mutate:  func(t *testing.T, f *ledgerFixture, tr *types.Transfer) { tr.ToAccountID = tr.FromAccountID },
			wantErr: types.ErrSameAccount,
		},
		{
			name:    "missing account",
			mutate:  func(t *testing.T, f *ledgerFixture, tr *types.Transfer) { tr.ToAccountID = "nope" },
			wantErr: types.ErrNotFound,
		},
		{
			name:    "negative amount",
			mutate:  func(t *testing.T, f *ledgerFixture, tr *types.Transfer) { tr.Amount = decimal.NewFromInt(-5) },
			wantErr: types.ErrInvalidAmount,
		},
		{
			name: "account of another user",
			mutate: func(t *testing.T, f *ledgerFixture, tr *types.Transfer) {
				otherUser := createUser(t, f.b, "Bo")
				tr.ToAccountID = createAccount(t, f.b, otherUser, "Elsewhere")
			},
			wantErr: types.ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			tr := types.Transfer{
				UserID:        f.userID,
				FromAccountID: f.checking,
				ToAccountID:   f.savings,
				Amount:        decimal.NewFromInt(10),
				Date:          "2024-03-01",
			}
			tt.mutate(t, f, &tr)

			_, _, err := f.b.RecordTransfer(tr)
			assert.ErrorIs(t, err, tt.wantErr)

			rows, err := f.txs.Fetch(nil)
			require.NoError(t, err)
			assert.Empty(t, rows, "nothing is written when a transfer is rejected")
		})
	}
}

func TestLinkedPair_StandaloneTransaction(t *testing.T) {
	f := newLedgerFixture(t)
	id, err := f.txs.Set("", f.debit(5, "2024-03-02"))
	require.NoError(t, err)

	_, _, err = f.b.LinkedPair(id)
	assert.ErrorIs(t, err, types.ErrNotLinked)

	_, _, err = f.b.LinkedPair("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTransactionsTable_DeleteRemovesBothLegs(t *testing.T) {
	for _, leg := range []string{"debit", "credit"} {
		t.Run(leg, func(t *testing.T) {
			f := newLedgerFixture(t)
			debitID, creditID, err := f.b.RecordTransfer(types.Transfer{
				UserID:        f.userID,
				FromAccountID: f.checking,
				ToAccountID:   f.savings,
				Amount:        decimal.NewFromInt(40),
				Date:          "2024-03-05",
			})
			require.NoError(t, err)
			keep, err := f.txs.Set("", f.debit(7, "2024-03-06"))
			require.NoError(t, err)

			target := debitID
			if leg == "credit" {
				target = creditID
			}
			require.NoError(t, f.txs.Delete(target))

			_, err = f.txs.Get(debitID)
			assert.ErrorIs(t, err, types.ErrNotFound)
			_, err = f.txs.Get(creditID)
			assert.ErrorIs(t, err, types.ErrNotFound)
			_, err = f.txs.Get(keep)
			assert.NoError(t, err)
		})
	}
}

func TestTransactionsTable_UpdateKeepsLink(t *testing.T) {
	f := newLedgerFixture(t)
	debitID, creditID, err := f.b.RecordTransfer(types.Transfer{
		UserID:        f.userID,
		FromAccountID: f.checking,
		ToAccountID:   f.savings,
		Amount:        decimal.NewFromInt(40),
		Date:          "2024-03-05",
	})
	require.NoError(t, err)

	got, err := f.txs.Get(debitID)
	require.NoError(t, err)
	debit := got.(*types.Transaction)
	debit.Notes = "edited"
	debit.LinkedTransactionID = nil
	_, err = f.txs.Set(debitID, debit)
	require.NoError(t, err)

	d, c, err := f.b.LinkedPair(debitID)
	require.NoError(t, err)
	assert.Equal(t, "edited", d.Notes)
	assert.Equal(t, creditID, c.ID)
}

func TestTransactionsTable_UpdateKeepsPairConsistent(t *testing.T) {
	tests := []struct {
		name    string
		leg     string
		mutate  func(f *ledgerFixture, tx *types.Transaction)
		wantErr error
	}{
		{
			name: "new amount and date reach the credit",
			leg:  "debit",
			mutate: func(f *ledgerFixture, tx *types.Transaction) {
				tx.Amount = decimal.NewFromInt(999)
				tx.Date = "2025-01-01"
			},
		},
		{
			name: "new amount and date reach the debit",
			leg:  "credit",
			mutate: func(f *ledgerFixture, tx *types.Transaction) {
				tx.Amount = decimal.NewFromInt(999)
				tx.Date = "2025-01-01"
			},
		},
		{
			name:    "debit cannot become a credit",
			leg:     "debit",
			mutate:  func(f *ledgerFixture, tx *types.Transaction) { tx.Type = types.TxCredit },
			wantErr: types.ErrInvalidData,
		},
		{
			name:    "credit cannot become a debit",
			leg:     "credit",
			mutate:  func(f *ledgerFixture, tx *types.Transaction) { tx.Type = types.TxDebit },
			wantErr: types.ErrInvalidData,
		},
		{
			name: "type change is rejected along with an amount change",
			leg:  "debit",
			mutate: func(f *ledgerFixture, tx *types.Transaction) {
				tx.Type = types.TxCredit
				tx.Amount = decimal.NewFromInt(999)
				tx.Date = "2025-01-01"
			},
			wantErr: types.ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			debitID, creditID, err := f.b.RecordTransfer(types.Transfer{
				UserID:        f.userID,
				FromAccountID: f.checking,
				ToAccountID:   f.savings,
				Amount:        decimal.NewFromInt(40),
				Date:          "2024-03-05",
			})
			require.NoError(t, err)

			target := debitID
			if tt.leg == "credit" {
				target = creditID
			}
			got, err := f.txs.Get(target)
			require.NoError(t, err)
			edited := got.(*types.Transaction)
			tt.mutate(f, edited)

			_, err = f.txs.Set(target, edited)

			d, c, pairErr := f.b.LinkedPair(creditID)
			require.NoError(t, pairErr, "pair stays resolvable")
			assert.Equal(t, debitID, d.ID)
			assert.Equal(t, types.TxDebit, d.Type)
			assert.Equal(t, types.TxCredit, c.Type)
			assert.True(t, d.Amount.Equal(c.Amount), "legs share the amount")
			assert.Equal(t, d.Date, c.Date, "legs share the date")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, decimal.NewFromInt(40).Equal(d.Amount), "rejected update writes nothing")
				assert.Equal(t, "2024-03-05", d.Date)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(999).Equal(d.Amount))
			assert.Equal(t, "2025-01-01", d.Date)
		})
	}
}
