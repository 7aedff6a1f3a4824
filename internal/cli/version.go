package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time through -ldflags.
var Version = "dev"

const modulePath = "github.com/mesh-intelligence/pocketbook"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pocket version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pocket %s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
