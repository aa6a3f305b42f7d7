package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"dubsync/internal/engine"
	"dubsync/internal/services/ttsrpc"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var specPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dub a job from a JSON job-spec file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(specPath) == "" {
				return fmt.Errorf("--file is required")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			spec, err := loadJobSpec(specPath)
			if err != nil {
				return err
			}

			out := strings.TrimSpace(outputPath)
			if out == "" {
				out = strings.TrimSpace(spec.OutputPath)
			}
			if out == "" {
				return fmt.Errorf("--output is required when the job spec has no output_path")
			}

			input := spec.toEngineInput()

			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progressbar.NewOptions(len(input.RecognizerSegments),
					progressbar.OptionSetDescription("synthesizing"),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
				)
				input.OnSegmentProgress = func(index, total int) {
					bar.Set(index)
				}
			}

			client := ttsrpc.NewClient(ttsrpc.Config{
				Endpoint: cfg.Synthesizer.Endpoint,
				APIKey:   cfg.Synthesizer.APIKey,
				Timeout:  time.Duration(cfg.Synthesizer.TimeoutSeconds) * time.Second,
			})
			e := engine.New(cfg, client, logger)

			result, err := e.Run(cmd.Context(), input, out)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return fmt.Errorf("run job: %w", err)
			}

			renderRunSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "file", "f", "", "Path to the JSON job-spec file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output WAV path (overrides the job spec's output_path)")
	return cmd
}

func renderRunSummary(cmd *cobra.Command, result engine.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Strategy: %s\n", result.Strategy)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Original duration", humanize.FormatFloat("#,###.###", result.Report.OriginalDurationSecs) + "s"},
		{"Final duration", humanize.FormatFloat("#,###.###", result.Report.FinalDurationSecs) + "s"},
		{"Difference", fmt.Sprintf("%.3fs (%.2f%%)", result.Report.DifferenceSecs, result.Report.DifferencePercent)},
		{"Accuracy", fmt.Sprintf("%.2f%%", result.Report.AccuracyPercent)},
		{"Segments", result.Report.SegmentCount},
		{"Files concatenated", result.Report.FilesConcatenated},
		{"Final trim applied", yesNo(result.Report.Trimmed)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	fmt.Fprint(out, tw.Render())
	fmt.Fprintln(out)

	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "%d alignment warning(s):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  segment %d: %s\n", w.Index, w.Message)
		}
	}
}
