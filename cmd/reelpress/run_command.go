package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reelpress/internal/config"
	"reelpress/internal/discord"
	"reelpress/internal/journal"
	"reelpress/internal/notion"
	"reelpress/internal/preflight"
	"reelpress/internal/services/gemini"
	"reelpress/internal/thumbnail"
	"reelpress/internal/trim"
	"reelpress/internal/workflow"
	"reelpress/internal/youtube"
	"reelpress/internal/zoom"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process pending work items end to end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !skipPreflight {
				if _, err := preflight.Run(cfg); err != nil {
					return fmt.Errorf("preflight failed, run `reelpress preflight` for details: %w", err)
				}
			}

			manager, cleanup, err := buildManager(cfg, ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := manager.Run(runCtx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s finished\n", summary.RunID)
			fmt.Fprintln(out, renderTable(
				[]string{"Retried", "Processed", "Failed", "Skipped"},
				[][]string{{
					fmt.Sprintf("%d", summary.Retried),
					fmt.Sprintf("%d", summary.Processed),
					fmt.Sprintf("%d", summary.Failed),
					fmt.Sprintf("%d", summary.Skipped),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before the run")
	return cmd
}

// buildManager wires every pipeline collaborator from configuration.
// The returned cleanup closes the journal when one is open.
func buildManager(cfg *config.Config, ctx *commandContext) (*workflow.Manager, func(), error) {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	source, err := zoom.NewClient(cfg.Zoom, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := notion.NewStore(cfg.Notion, logger)
	if err != nil {
		return nil, nil, err
	}
	model, err := gemini.NewClient(cfg.Gemini)
	if err != nil {
		return nil, nil, err
	}
	registry, err := thumbnail.LoadRegistry(cfg.Paths.TemplatesDir)
	if err != nil {
		return nil, nil, err
	}
	assets, err := thumbnail.LoadAssets(cfg.Paths.AssetsDir)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := youtube.NewClient(cfg.YouTube, logger)
	if err != nil {
		return nil, nil, err
	}

	deps := workflow.Dependencies{
		Source:      source,
		Store:       store,
		Trimmer:     trim.NewEngine(cfg.Trim, logger),
		Thumbnailer: thumbnail.NewEngine(cfg.Pipeline, cfg.Paths, registry, assets, model, logger),
		Publisher:   publisher,
		Announcer:   discord.NewNotifier(cfg.Discord, logger),
	}

	cleanup := func() {}
	if cfg.Journal.Enabled {
		runJournal, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, err
		}
		deps.Journal = runJournal
		cleanup = func() { runJournal.Close() }
	}

	return workflow.NewManager(cfg, deps, logger), cleanup, nil
}
