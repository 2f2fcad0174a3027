package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpress/internal/trim"
)

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "trim <input>",
		Short: "Remove leading and trailing silence from a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			engine := trim.NewEngine(cfg.Trim, logger)
			result, err := engine.AutoTrim(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result == args[0] {
				fmt.Fprintln(out, "no silence to trim, original left untouched")
				return nil
			}
			fmt.Fprintf(out, "trimmed file written to %s\n", result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults to <input>_trimmed)")
	return cmd
}
