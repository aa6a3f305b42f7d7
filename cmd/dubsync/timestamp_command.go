package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"dubsync/internal/aligner"
	"dubsync/internal/splitter"
	"dubsync/internal/timestamp"
)

func newTimestampCommand(ctx *commandContext) *cobra.Command {
	timestampCmd := &cobra.Command{
		Use:   "timestamp",
		Short: "Recognizer-segment ingest utilities",
	}
	timestampCmd.AddCommand(newTimestampParseCommand(ctx))
	timestampCmd.AddCommand(newTimestampConvertCommand())
	return timestampCmd
}

// newTimestampConvertCommand converts raw recognizer timestamps (bare
// milliseconds, or "HH:MM:SS,mmm"/"HH:MM:SS.mmm") to seconds, for checking
// a recognizer's wire format by hand before it ever reaches a job spec.
func newTimestampConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <raw>...",
		Short: "Convert raw recognizer timestamps to seconds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Raw", "Seconds", "Round-trip"})
			for _, raw := range args {
				seconds, err := timestamp.ParseSeconds(raw)
				if err != nil {
					return fmt.Errorf("convert %q: %w", raw, err)
				}
				tw.AppendRow(table.Row{raw, fmt.Sprintf("%.3f", seconds), timestamp.FormatSeconds(seconds)})
			}
			fmt.Fprint(out, tw.Render())
			fmt.Fprintln(out)
			return nil
		},
	}
}

// newTimestampParseCommand runs a job spec's recognizer segments and
// translated text through the Proportional Splitter and Segment Aligner
// without synthesizing anything, so a recognizer/translator pairing can be
// sanity-checked before a full `dub run`.
func newTimestampParseCommand(ctx *commandContext) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse and align a job spec's recognizer segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			spec, err := loadJobSpec(specPath)
			if err != nil {
				return err
			}
			input := spec.toEngineInput()

			parts, err := splitter.Split(input.TranslatedText, len(input.RecognizerSegments), cfg.Splitter.SearchWindowFraction)
			if err != nil {
				return fmt.Errorf("split translation: %w", err)
			}

			result, err := aligner.Align(parts, input.RecognizerSegments, input.OriginalDurationSecs, nil)
			if err != nil {
				return fmt.Errorf("align segments: %w", err)
			}

			out := cmd.OutOrStdout()
			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"#", "Start (s)", "End (s)", "Text"})
			for i, seg := range result.Segments {
				tw.AppendRow(table.Row{i, fmt.Sprintf("%.3f", seg.StartSeconds), fmt.Sprintf("%.3f", seg.EndSeconds), seg.Text})
			}
			fmt.Fprint(out, tw.Render())
			fmt.Fprintln(out)

			if len(result.Warnings) > 0 {
				fmt.Fprintf(out, "%d warning(s):\n", len(result.Warnings))
				for _, w := range result.Warnings {
					fmt.Fprintf(out, "  segment %d: %s\n", w.Index, w.Message)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&specPath, "file", "f", "", "Path to the JSON job-spec file")
	return cmd
}
