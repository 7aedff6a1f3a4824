package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// statusReport is the JSON shape of the status command.
type statusReport struct {
	SchemaVersion     int                      `json:"schema_version"`
	TargetVersion     int                      `json:"target_version"`
	Initialized       bool                     `json:"initialized"`
	DeprecatedColumns []types.DeprecatedColumn `json:"deprecated_columns"`
	TransferFailures  []types.TransferFailure  `json:"transfer_failures"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema version, seeding state and migration leftovers",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openStore("")
			if err != nil {
				return err
			}
			defer b.Close()

			var s statusReport
			if s.SchemaVersion, err = b.SchemaVersion(); err != nil {
				return classify(err)
			}
			s.TargetVersion = b.TargetVersion()
			if s.Initialized, err = b.IsInitialized(); err != nil {
				return classify(err)
			}
			if s.DeprecatedColumns, err = b.DeprecatedColumns(); err != nil {
				return classify(err)
			}
			if s.TransferFailures, err = b.TransferFailures(); err != nil {
				return classify(err)
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, s)
			}
			fmt.Fprintf(out, "schema version %d of %d\n", s.SchemaVersion, s.TargetVersion)
			fmt.Fprintf(out, "initialized: %t\n", s.Initialized)
			for _, c := range s.DeprecatedColumns {
				fmt.Fprintf(out, "deprecated %s.%s (since %d): %s\n", c.Table, c.Column, c.DeprecatedIn, c.Reason)
			}
			for _, f := range s.TransferFailures {
				fmt.Fprintf(out, "unconverted transfer %s: %s\n", f.TransactionID, f.Error)
			}
			return nil
		},
	}
}
