package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/cmd/ogsetup/commands"
	"github.com/systmms/ogsetup/internal/config"
	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe enclave keys on interrupt and on normal exit.
	memguard.CatchInterrupt()

	err := run(os.Args[1:])
	memguard.Purge()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(dserrors.ExitCode(err))
	}
}

func run(args []string) error {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func newRootCommand() *cobra.Command {
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "ogsetup",
		Short: "Set up the Opsgenie app for Splunk",
		Long: `ogsetup stores the Opsgenie API key in splunkd, marks the Opsgenie app as
configured and reloads it. It can also serve the setup form over HTTP and run
the Opsgenie alert action.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
			cfg.NonInteractive = nonInteractive
			cfg.Required = cmd.Root().PersistentFlags().Changed("config")
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt for input")

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewLoginCommand(cfg),
		commands.NewSetupCommand(cfg),
		commands.NewStatusCommand(cfg),
		commands.NewServeCommand(cfg),
		commands.NewAlertCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd
}
