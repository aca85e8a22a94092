package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hiregate",
		Short: "hiregate - rule-driven interview scoring and decision engine",
		Long: `hiregate evaluates interview transcripts and competency ratings against a
configuration bundle of scoring formulas, red flag patterns, and decision
rules, producing a HIRE/HOLD/REJECT decision with full rationale.

Configuration is data: formulas, trigger phrases, impacts, and decision
conditions all live in a YAML bundle that can be checked before deployment.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	}

	// Add subcommands
	cmd.AddCommand(newEvaluateCommand())
	cmd.AddCommand(newCheckCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
