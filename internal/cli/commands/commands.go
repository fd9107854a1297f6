// Package commands implements the medallion CLI subcommands.
package commands

import (
	"log/slog"

	"github.com/gibbonslabs/medallion/internal/cli/config"
)

// logger is configured by the root command before any subcommand runs.
var logger = slog.New(slog.DiscardHandler)

// SetLogger installs the CLI-wide structured logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// getConfig returns the loaded CLI configuration.
func getConfig() *config.Config {
	if cfg := config.Current(); cfg != nil {
		return cfg
	}
	return &config.Config{}
}
