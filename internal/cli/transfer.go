package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

func newTransferCmd(a *app) *cobra.Command {
	var (
		tr           types.Transfer
		user, amount string
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move funds between two accounts",
		Long:  "Record a transfer as a linked pair: a debit on --from and a credit on --to.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if tr.UserID, err = a.userID(user); err != nil {
				return err
			}
			if tr.Amount, err = decimal.NewFromString(amount); err != nil {
				return userError(fmt.Errorf("amount %q: %w", amount, types.ErrInvalidAmount))
			}
			if tr.Date == "" {
				tr.Date = time.Now().Format(types.DateLayout)
			}
			if err := tr.Validate(); err != nil {
				return userError(err)
			}

			b, err := a.openStore("")
			if err != nil {
				return err
			}
			defer b.Close()

			debitID, creditID, err := b.RecordTransfer(tr)
			if err != nil {
				return classify(err)
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"debit_id": debitID, "credit_id": creditID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "debit  %s\ncredit %s\n", debitID, creditID)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (default: user_id from config)")
	cmd.Flags().StringVar(&tr.FromAccountID, "from", "", "source account id")
	cmd.Flags().StringVar(&tr.ToAccountID, "to", "", "destination account id")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to move")
	cmd.Flags().StringVar(&tr.Date, "date", "", "date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&tr.CategoryID, "category", "", "category id")
	cmd.Flags().StringVar(&tr.Notes, "notes", "", "free-text notes")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
