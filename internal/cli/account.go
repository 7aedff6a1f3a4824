package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountAddCmd(a))
	cmd.AddCommand(newAccountListCmd(a))
	return cmd
}

func newAccountAddCmd(a *app) *cobra.Command {
	var user, kind, balance, currency string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.userID(user)
			if err != nil {
				return err
			}
			bal, err := decimal.NewFromString(balance)
			if err != nil {
				return userError(fmt.Errorf("balance %q: %w", balance, types.ErrInvalidAmount))
			}

			b, err := a.openStore("")
			if err != nil {
				return err
			}
			defer b.Close()

			tbl, err := b.GetTable(types.AccountsTable)
			if err != nil {
				return classify(err)
			}
			id, err := tbl.Set("", &types.Account{
				UserID:   userID,
				Name:     args[0],
				Type:     kind,
				Balance:  bal,
				Currency: currency,
			})
			if err != nil {
				return classify(err)
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"id": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (default: user_id from config)")
	cmd.Flags().StringVar(&kind, "type", types.AccountBank, "account type: cash, bank, card, savings")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code")
	return cmd
}

func newAccountListCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.userID(user)
			if err != nil {
				return err
			}
			b, err := a.openStore("")
			if err != nil {
				return err
			}
			defer b.Close()

			tbl, err := b.GetTable(types.AccountsTable)
			if err != nil {
				return classify(err)
			}
			rows, err := tbl.Fetch(types.Filter{"user_id": userID})
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
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBALANCE")
			for _, r := range rows {
				acc := r.(*types.Account)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", acc.ID, acc.Name, acc.Type, formatAmount(p, acc.Balance))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (default: user_id from config)")
	return cmd
}
