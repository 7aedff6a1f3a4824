package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd(a))
	cmd.AddCommand(newUserProfileCmd(a))
	return cmd
}

func newUserAddCmd(a *app) *cobra.Command {
	var email, currency string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openStore("")
			if err != nil {
				return err
			}
			defer b.Close()

			tbl, err := b.GetTable(types.UsersTable)
			if err != nil {
				return classify(err)
			}
			id, err := tbl.Set("", &types.User{Name: args[0], Email: email, Currency: currency})
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
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code")
	return cmd
}

func newUserProfileCmd(a *app) *cobra.Command {
	var (
		user                    string
		avatar, dob, occupation string
		interests               []string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update a user's profile and interests",
		Long:  "Set profile fields and replace the interest list in one change. Unset flags keep their stored value.",
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

			tbl, err := b.GetTable(types.UsersTable)
			if err != nil {
				return classify(err)
			}
			got, err := tbl.Get(userID)
			if err != nil {
				return classify(err)
			}
			u := got.(*types.User)

			flags := cmd.Flags()
			if flags.Changed("avatar") {
				u.Avatar = &avatar
			}
			if flags.Changed("dob") {
				u.DateOfBirth = &dob
			}
			if flags.Changed("occupation") {
				u.Occupation = &occupation
			}
			if !flags.Changed("interest") {
				current, err := b.Interests(userID)
				if err != nil {
					return classify(err)
				}
				for _, i := range current {
					interests = append(interests, i.Interest)
				}
			}

			if err := b.UpdateProfile(u, interests); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated profile for %s\n", userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (default: user_id from config)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar reference")
	cmd.Flags().StringVar(&dob, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&occupation, "occupation", "", "occupation")
	cmd.Flags().StringArrayVar(&interests, "interest", nil, "interest (repeatable; replaces the stored list)")
	return cmd
}
