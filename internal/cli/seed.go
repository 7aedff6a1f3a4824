package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default categories for a user",
		Long:  "Insert any missing default categories and subcategories and mark the store initialized.",
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

			if err := b.SeedDefaults(userID); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded defaults for %s\n", userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (default: user_id from config)")
	return cmd
}
