package trim

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/media/ffprobe"
	"reelpress/internal/services"
)

// Engine removes leading and trailing silence from recordings using ffmpeg
// stream copies; it never re-encodes.
type Engine struct {
	cfg    config.Trim
	logger *slog.Logger
}

// NewEngine builds a trim engine from the trim configuration section.
func NewEngine(cfg config.Trim, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logging.WithComponent(logger, "trim")}
}

// AutoTrim detects silence, decides trim points, and writes a trimmed copy
// to outputPath. When there is nothing meaningful to cut the original
// input path is returned and no file is written; callers must use the
// returned path rather than assuming a new file exists.
func (e *Engine) AutoTrim(ctx context.Context, inputPath, outputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "trim", "auto_trim", "input file missing", err)
	}

	probe, err := ffprobe.Inspect(ctx, e.cfg.FFprobeBinary, inputPath)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "trim", "probe", "", err)
	}
	total := probe.DurationSeconds()

	intervals, err := e.detectSilence(ctx, inputPath, total)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "trim", "silencedetect", "", err)
	}
	e.logger.Info("silence analysis complete",
		logging.Int("intervals", len(intervals)),
		logging.Float64("total_seconds", total))

	points := DecidePoints(intervals, total, e.cfg.EdgeSeconds)
	if points.Spans(total, e.cfg.EdgeSeconds) {
		e.logger.Info("no significant silence at edges; keeping original", logging.String("path", inputPath))
		return inputPath, nil
	}

	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + "_trimmed" + ext
	}
	if err := e.cut(ctx, inputPath, outputPath, points); err != nil {
		return "", services.Wrap(services.ErrTransient, "trim", "cut", "", err)
	}
	e.logger.Info("trimmed recording",
		logging.String("output", outputPath),
		logging.Float64("start", points.Start),
		logging.Float64("end", points.End))
	return outputPath, nil
}

// cut performs a stream copy between the trim points.
func (e *Engine) cut(ctx context.Context, inputPath, outputPath string, points Points) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}
	cmd := exec.CommandContext(ctx, e.cfg.FFmpegBinary,
		"-i", inputPath,
		"-ss", formatSeconds(points.Start),
		"-to", formatSeconds(points.End),
		"-c", "copy",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg copy: %w: %s", err, tail(string(output)))
	}
	return nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
