package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pocketbook/internal/logger"
	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the database to the current schema",
		Long: "Open the database and apply every pending schema version. Legacy transfer\n" +
			"rows are converted into linked debit/credit pairs. Running it again is a no-op.",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openStore("")
			if err != nil {
				return err
			}
			defer b.Close()

			report := b.MigrationReport()
			log := logger.FromContext(cmd.Context())
			log.Info().
				Int("from", report.FromVersion).
				Int("to", report.ToVersion).
				Int("transfers_converted", report.TransfersConverted).
				Msg("migrate finished")
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printReport(w io.Writer, r *types.MigrationReport) {
	if r.UpToDate() {
		fmt.Fprintf(w, "schema is up to date at version %d\n", r.ToVersion)
		return
	}
	fmt.Fprintf(w, "schema version %d -> %d\n", r.FromVersion, r.ToVersion)
	for _, m := range r.Applied {
		fmt.Fprintf(w, "  applied %2d %s\n", m.Version, m.Name)
	}
	if r.SnapshotPath != "" {
		fmt.Fprintf(w, "legacy transfers saved to %s\n", r.SnapshotPath)
	}
	fmt.Fprintf(w, "transfers converted: %d\n", r.TransfersConverted)
	for _, f := range r.TransferFailures {
		fmt.Fprintf(w, "  failed %s: %s\n", f.TransactionID, f.Error)
	}
}
