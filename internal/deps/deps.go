// Package deps verifies the external tools the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"reelpress/internal/config"
	"reelpress/internal/services"
)

// Tool describes one required external binary.
type Tool struct {
	Name   string
	Binary string
	Path   string
	Found  bool
}

// CheckBinaries resolves the configured ffmpeg and ffprobe binaries on
// PATH. The returned slice always has one entry per tool so callers can
// render a full report; the error summarizes anything missing.
func CheckBinaries(cfg config.Trim) ([]Tool, error) {
	tools := []Tool{
		{Name: "ffmpeg", Binary: cfg.FFmpegBinary},
		{Name: "ffprobe", Binary: cfg.FFprobeBinary},
	}
	var missing []string
	for i := range tools {
		if tools[i].Binary == "" {
			tools[i].Binary = tools[i].Name
		}
		path, err := exec.LookPath(tools[i].Binary)
		if err != nil {
			missing = append(missing, tools[i].Binary)
			continue
		}
		tools[i].Path = path
		tools[i].Found = true
	}
	if len(missing) > 0 {
		return tools, services.Wrap(services.ErrConfiguration, "deps", "check_binaries",
			fmt.Sprintf("not found on PATH: %s", strings.Join(missing, ", ")), nil)
	}
	return tools, nil
}
