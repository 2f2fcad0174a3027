package thumbnail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/notion"
	"reelpress/internal/services"
	"reelpress/internal/services/gemini"
)

// imageModel is the slice of the Gemini client the engine needs. Tests
// substitute a fake so no generation step talks to the network.
type imageModel interface {
	GenerateImage(ctx context.Context, prompt string, images []gemini.ImagePart) ([]byte, error)
	GenerateText(ctx context.Context, prompt string, images []gemini.ImagePart) (string, error)
}

const generateBackoff = 3 * time.Second

// Options carries per-item inputs that do not live in the master
// database row. AuxImagePath is the phone screenshot the group-consult
// pattern composes in; other patterns ignore it.
type Options struct {
	AuxImagePath string
}

// Engine produces thumbnails: it resolves the pattern, renders the
// prompt, gathers the input images, and drives the image model with a
// bounded retry budget.
type Engine struct {
	registry    *Registry
	assets      *Assets
	model       imageModel
	outputDir   string
	maxAttempts int
	logger      *slog.Logger

	sleep func(time.Duration)
	now   func() time.Time
}

// NewEngine wires the engine from loaded registries and a model client.
func NewEngine(cfg config.Pipeline, paths config.Paths, registry *Registry, assets *Assets, model imageModel, logger *slog.Logger) *Engine {
	maxAttempts := cfg.ThumbnailMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Engine{
		registry:    registry,
		assets:      assets,
		model:       model,
		outputDir:   paths.OutputDir,
		maxAttempts: maxAttempts,
		logger:      logging.WithComponent(logger, "thumbnail"),
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// Generate produces a thumbnail for one work item and returns the path
// of the written PNG. Pattern and input problems surface before any
// model call; model responses without image data are retried up to the
// attempt budget and then reported as exhausted.
func (e *Engine) Generate(ctx context.Context, item notion.WorkItem, opts Options) (string, error) {
	pattern, err := ResolvePattern(item.Pattern)
	if err != nil {
		return "", err
	}
	template, err := e.registry.Template(pattern)
	if err != nil {
		return "", err
	}

	prompt := renderPrompt(e.logger, template, promptValues(item))
	images, err := e.inputImages(template, item, opts)
	if err != nil {
		return "", err
	}

	data, err := e.generateWithRetry(ctx, pattern, prompt, images)
	if err != nil {
		return "", err
	}
	return e.write(pattern, item, data)
}

// generateWithRetry calls the model up to the attempt budget. Only
// image-less responses are retried; transport and input failures
// surface immediately.
func (e *Engine) generateWithRetry(ctx context.Context, pattern Pattern, prompt string, images []gemini.ImagePart) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		data, err := e.model.GenerateImage(ctx, prompt, images)
		if err == nil {
			return data, nil
		}
		if !services.IsIntegration(err) {
			return nil, err
		}
		lastErr = err
		e.logger.Warn("model returned no image, retrying",
			logging.String("pattern", string(pattern)),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", e.maxAttempts))
		if attempt < e.maxAttempts {
			e.sleep(generateBackoff)
			if err := ctx.Err(); err != nil {
				return nil, services.Wrap(services.ErrTransient, "thumbnail", "generate", "canceled while waiting to retry", err)
			}
		}
	}
	return nil, services.Wrap(services.ErrExhausted, "thumbnail", "generate",
		fmt.Sprintf("no image after %d attempts", e.maxAttempts), lastErr)
}

// inputImages assembles the image parts in layout order: the template
// base first, then the pattern's auxiliary image when it needs one.
func (e *Engine) inputImages(template Template, item notion.WorkItem, opts Options) ([]gemini.ImagePart, error) {
	images := []gemini.ImagePart{{MIME: "image/png", Data: template.BaseImage}}
	if !template.NeedsAux {
		return images, nil
	}

	switch template.ID {
	case PatternDialogue:
		portraitPath, err := e.assets.FindPortrait(item.LecturerName)
		if err != nil {
			return nil, err
		}
		portrait, err := readImage(portraitPath)
		if err != nil {
			return nil, err
		}
		return append(images, portrait), nil
	case PatternGroupConsult:
		if opts.AuxImagePath == "" {
			return nil, services.Wrap(services.ErrValidation, "thumbnail", "input_images",
				"group-consult pattern requires a phone screenshot path", nil)
		}
		screenshot, err := readImage(opts.AuxImagePath)
		if err != nil {
			return nil, err
		}
		return append(images, screenshot), nil
	default:
		return images, nil
	}
}

func readImage(path string) (gemini.ImagePart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gemini.ImagePart{}, services.Wrap(services.ErrNotFound, "thumbnail", "read_image", path, err)
	}
	return gemini.ImagePart{MIME: mimeByExtension(path), Data: data}, nil
}

func mimeByExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// promptValues maps template variables to work item fields.
func promptValues(item notion.WorkItem) map[string]string {
	return map[string]string{
		"サムネ文言": item.ThumbnailText,
		"講師名":   item.LecturerName,
		"ジャンル":  item.Genre,
		"生徒名":   item.StudentName,
		"補足情報":  item.Notes,
	}
}

func (e *Engine) write(pattern Pattern, item notion.WorkItem, data []byte) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "thumbnail", "write", e.outputDir, err)
	}
	name := fmt.Sprintf("%s_%s_%s.png", pattern, sanitizeLabel(item.ThumbnailText), e.now().Format("20060102_150405"))
	path := filepath.Join(e.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "thumbnail", "write", path, err)
	}
	return path, nil
}

// sanitizeLabel makes the thumbnail text safe for a file name and caps
// it at 20 runes.
func sanitizeLabel(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\n', '\t':
			return '_'
		}
		return r
	}, strings.TrimSpace(text))
	if cleaned == "" {
		cleaned = "untitled"
	}
	runes := []rune(cleaned)
	if len(runes) > 20 {
		runes = runes[:20]
	}
	return string(runes)
}
