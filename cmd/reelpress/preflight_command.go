package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelpress/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check binaries, disk space, and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			report, runErr := preflight.Run(cfg)
			rows := make([][]string, 0, len(report.Checks))
			for _, check := range report.Checks {
				mark := "ok"
				if !check.OK {
					mark = "FAIL"
				}
				rows = append(rows, []string{check.Name, mark, check.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if runErr != nil {
				return errors.New("preflight failed")
			}
			return nil
		},
	}
}
