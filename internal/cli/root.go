// Package cli implements the pocket command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/pocketbook/internal/logger"
	"github.com/mesh-intelligence/pocketbook/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *viper.Viper
	log       zerolog.Logger
}

// NewRootCmd creates the top-level "pocket" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "pocket",
		Short: "Personal finance ledger on an embedded SQLite store",
		Long: "pocket keeps accounts, categories, budgets and transactions in a local SQLite\n" +
			"database and upgrades databases written by any earlier release on open.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newSeedCmd(a))
	root.AddCommand(newUserCmd(a))
	root.AddCommand(newAccountCmd(a))
	root.AddCommand(newTransferCmd(a))
	root.AddCommand(newTransactionsCmd(a))

	return root
}

// setup resolves the config directory, loads config.yaml and builds the
// logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}

	level := a.flags.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	log, err := logger.New(level)
	if err != nil {
		return userError(err)
	}

	a.configDir = configDir
	a.cfg = cfg
	a.log = log
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
}

// run executes root with args and maps its error to an exit code.
func run(root *cobra.Command, args []string, stdout, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument parsing errors come from cobra itself.
	return exitUserError
}
