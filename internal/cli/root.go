// Package cli provides the command-line interface for medallion.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gibbonslabs/medallion/internal/cli/commands"
	"github.com/gibbonslabs/medallion/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medallion",
		Short: "Medallion - Silver/Gold analytics pipeline",
		Long: `Medallion transforms staged sales data into a dimensionally-modeled
analytics layer: it enforces types and quality rules, standardizes and
deduplicates entities into conformed dimensions, synthesizes a calendar
dimension, builds the sales fact table, and exports every layer with
metadata sidecars.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			commands.SetLogger(logger)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./medallion.yaml)")
	rootCmd.PersistentFlags().String("staging-type", "", "Staging source type (duckdb, postgres)")
	rootCmd.PersistentFlags().String("staging-path", "", "Path to the staging database file (duckdb)")
	rootCmd.PersistentFlags().String("staging-host", "", "Staging database host (postgres)")
	rootCmd.PersistentFlags().Int("staging-port", 0, "Staging database port (postgres)")
	rootCmd.PersistentFlags().String("staging-database", "", "Staging database name (postgres)")
	rootCmd.PersistentFlags().String("output-dir", "", "Root directory for layered exports")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
