package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the quality report for the latest run",
		Long: `Print the per-relation quality counts (input, rejected, output rows)
and the per-reason fact rejection counts recorded by the most recent
pipeline run.`,
		RunE: runReport,
	}
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()

	store, err := openStore(cfg.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.LatestRun()
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s), started %s\n", run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}

	reports, err := store.ReportsForRun(run.ID)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Stage", "Relation", "Input", "Rejected", "Output"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.Stage, r.Relation, r.InputRows, r.RejectedRows, r.OutputRows})
	}
	t.Render()

	rejections, err := store.RejectionsForRun(run.ID)
	if err != nil {
		return err
	}
	if len(rejections) > 0 {
		rt := table.NewWriter()
		rt.SetOutputMirror(out)
		rt.AppendHeader(table.Row{"Fact Rejection Reason", "Count"})
		for _, r := range rejections {
			rt.AppendRow(table.Row{r.Reason, r.Count})
		}
		rt.Render()
	}

	return nil
}
