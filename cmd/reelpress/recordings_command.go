package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelpress/internal/zoom"
)

func newRecordingsCommand(ctx *commandContext) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List recent cloud recordings with accepted files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := zoom.NewClient(cfg.Zoom, logger)
			if err != nil {
				return err
			}

			if hours <= 0 {
				hours = cfg.Pipeline.LookbackHours
			}
			to := time.Now()
			meetings, err := client.ListRecordings(cmd.Context(), to.Add(-time.Duration(hours)*time.Hour), to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(meetings) == 0 {
				fmt.Fprintf(out, "no recordings with accepted files in the last %dh\n", hours)
				return nil
			}
			rows := make([][]string, 0, len(meetings))
			for _, meeting := range meetings {
				var total int64
				for _, file := range meeting.RecordingFiles {
					total += file.FileSize
				}
				rows = append(rows, []string{
					meeting.Topic,
					meeting.StartTime.Local().Format("2006-01-02 15:04"),
					fmt.Sprintf("%d", len(meeting.RecordingFiles)),
					formatBytes(total),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Topic", "Start", "Files", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "Lookback window in hours (defaults to pipeline.lookback_hours)")
	return cmd
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
