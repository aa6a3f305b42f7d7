package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"dubsync/internal/staging"
)

// newJobsCommand manages the job temp-directory root: every SynthesisJob
// removes its own directory on Close, so anything found here is left over
// from a crashed or killed run.
func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and clean the job temp-directory root",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsCleanCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List directories under the job temp root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dirs, err := staging.ListDirectories(cfg.Job.TempRoot)
			if err != nil {
				return fmt.Errorf("list job directories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No leftover job directories found")
				return nil
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Job ID", "Age", "Size"})
			var totalSize int64
			for _, dir := range dirs {
				tw.AppendRow(table.Row{dir.Name, time.Since(dir.ModTime).Truncate(time.Second), humanize.Bytes(uint64(dir.Size))})
				totalSize += dir.Size
			}
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, Align: text.AlignRight},
				{Number: 3, Align: text.AlignRight},
			})
			fmt.Fprint(out, tw.Render())
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%d directories, %s total\n", len(dirs), humanize.Bytes(uint64(totalSize)))
			return nil
		},
	}
}

func newJobsCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove job directories older than --max-age",
		Long: `Every SynthesisJob removes its own directory on Close. Directories
older than --max-age under the job temp root were left behind by a run
that crashed or was killed before it reached Close.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			result := staging.CleanStale(cmd.Context(), cfg.Job.TempRoot, maxAge, logger)

			out := cmd.OutOrStdout()
			if len(result.Removed) == 0 && len(result.Errors) == 0 {
				fmt.Fprintln(out, "No stale job directories to clean")
				return nil
			}
			fmt.Fprintf(out, "Removed %d stale job director(y/ies)\n", len(result.Removed))
			for _, cleanupErr := range result.Errors {
				fmt.Fprintf(out, "  error: %s: %v\n", cleanupErr.Path, cleanupErr.Error)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove job directories older than this")
	return cmd
}
