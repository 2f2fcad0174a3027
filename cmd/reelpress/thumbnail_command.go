package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelpress/internal/notion"
	"reelpress/internal/services/gemini"
	"reelpress/internal/thumbnail"
)

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	var (
		pattern  string
		text     string
		lecturer string
		genre    string
		student  string
		auxImage string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "thumbnail",
		Short: "Generate a thumbnail without running the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pattern == "" || text == "" {
				return errors.New("--pattern and --text are required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			model, err := gemini.NewClient(cfg.Gemini)
			if err != nil {
				return err
			}
			registry, err := thumbnail.LoadRegistry(cfg.Paths.TemplatesDir)
			if err != nil {
				return err
			}
			assets, err := thumbnail.LoadAssets(cfg.Paths.AssetsDir)
			if err != nil {
				return err
			}
			engine := thumbnail.NewEngine(cfg.Pipeline, cfg.Paths, registry, assets, model, logger)

			item := notion.WorkItem{
				Title:         text,
				ThumbnailText: text,
				LecturerName:  lecturer,
				Genre:         genre,
				Pattern:       pattern,
				StudentName:   student,
			}
			opts := thumbnail.Options{AuxImagePath: auxImage}

			var path string
			if validate {
				path, err = engine.GenerateValidated(cmd.Context(), item, opts)
			} else {
				path, err = engine.Generate(cmd.Context(), item, opts)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "thumbnail written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Thumbnail pattern (対談, グルコン, 1on1, ...)")
	cmd.Flags().StringVar(&text, "text", "", "Thumbnail headline text")
	cmd.Flags().StringVar(&lecturer, "lecturer", "", "Lecturer name for portrait lookup")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre label")
	cmd.Flags().StringVar(&student, "student", "", "Student name")
	cmd.Flags().StringVar(&auxImage, "aux-image", "", "Auxiliary image path (phone screenshot for グルコン)")
	cmd.Flags().BoolVar(&validate, "validate", false, "Run the layout check and regenerate on defects")
	return cmd
}
