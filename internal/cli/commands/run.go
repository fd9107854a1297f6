package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gibbonslabs/medallion/internal/pipeline"
	"github.com/gibbonslabs/medallion/internal/staging"
	"github.com/gibbonslabs/medallion/internal/state"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	SkipExport bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full silver/gold pipeline",
		Long: `Load the staged relations, enforce types and quality rules, build the
silver layer and the gold star schema, and export every layer with
metadata sidecars. A run fully replaces prior output; a failed run
leaves prior output untouched.`,
		Example: `  # Run against the default duckdb staging file
  medallion run

  # Run against a different staging database, exporting elsewhere
  medallion run --staging-path /srv/staging/sales.duckdb --output-dir /srv/exports

  # Transform without writing any output files
  medallion run --skip-export`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipExport, "skip-export", false, "Run the transformation stages without exporting")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cfg := getConfig()
	ctx := context.Background()

	src, err := staging.New(cfg.SourceConfig(), logger)
	if err != nil {
		return err
	}
	if err := src.Connect(ctx, cfg.SourceConfig()); err != nil {
		return fmt.Errorf("failed to connect staging source: %w", err)
	}
	defer src.Close()

	store, err := openStore(cfg.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(pipeline.Config{
		Source:     src,
		Store:      store,
		OutputDir:  cfg.OutputDir,
		SkipExport: opts.SkipExport,
		Logger:     logger,
	})

	started := time.Now()
	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s completed in %s: %d fact rows, %d rejected\n",
		result.RunID, time.Since(started).Round(time.Millisecond),
		result.Fact.NumRows(), result.FactReport.RejectedTotal())
	return nil
}

// openStore opens the run-history store, creating its directory first.
func openStore(path string) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	return store, nil
}
