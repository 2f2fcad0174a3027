package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelpress/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline run results from the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("the run journal is disabled; enable [journal] in the configuration")
			}

			runJournal, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer runJournal.Close()

			entries, err := runJournal.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no journaled runs yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				detail := entry.VideoURL
				if entry.Error != "" {
					detail = entry.Error
				}
				rows = append(rows, []string{
					entry.RecordedAt.Local().Format("2006-01-02 15:04"),
					entry.Title,
					string(entry.Outcome),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Title", "Outcome", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")
	return cmd
}
