package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

func newTransactionsCmd(a *app) *cobra.Command {
	var (
		user, account string
		limit         int
	)
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List a user's transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.userID(user)
			if err != nil {
				return err
			}
			filter := types.Filter{"user_id": userID}
			if account != "" {
				filter["account_id"] = account
			}
			if limit > 0 {
				filter["limit"] = limit
			}

			b, err := a.openStore("")
			if err != nil {
				return err
			}
			defer b.Close()

			tbl, err := b.GetTable(types.TransactionsTable)
			if err != nil {
				return classify(err)
			}
			rows, err := tbl.Fetch(filter)
			if err != nil {
				return classify(err)
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, rows)
			}
			p, err := a.printer()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tACCOUNT\tLINKED\tNOTES")
			for _, r := range rows {
				tx := r.(*types.Transaction)
				linked := ""
				if tx.LinkedTransactionID != nil {
					linked = *tx.LinkedTransactionID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.Date, tx.Type, formatAmount(p, tx.Amount), tx.AccountID, linked, tx.Notes)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (default: user_id from config)")
	cmd.Flags().StringVar(&account, "account", "", "only this account")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (0 for all)")
	return cmd
}
