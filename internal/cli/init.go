package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and database",
		Long: "Write config.yaml if it is missing, then open the database, which creates it\n" +
			"or upgrades it to the current schema.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	dataDir, err := a.dataDir()
	if err != nil {
		return err
	}

	written, err := writeConfigIfMissing(a.configDir, configFile{
		Backend:  types.BackendSQLite,
		DataDir:  dataDir,
		UserID:   a.cfg.GetString(cfgKeyUserID),
		LogLevel: a.cfg.GetString(cfgKeyLogLevel),
		Locale:   a.cfg.GetString(cfgKeyLocale),
	})
	if err != nil {
		return sysError(err)
	}

	b, err := a.openStore(a.cfg.GetString(cfgKeyUserID))
	if err != nil {
		return err
	}
	defer b.Close()

	version, err := b.SchemaVersion()
	if err != nil {
		return classify(err)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return writeJSON(out, map[string]any{
			"config_dir":     a.configDir,
			"config_written": written,
			"data_dir":       dataDir,
			"database":       filepath.Join(dataDir, types.DatabaseFile),
			"schema_version": version,
		})
	}
	fmt.Fprintf(out, "config:   %s\n", filepath.Join(a.configDir, configFileExt))
	fmt.Fprintf(out, "database: %s\n", filepath.Join(dataDir, types.DatabaseFile))
	fmt.Fprintf(out, "schema version %d\n", version)
	return nil
}
