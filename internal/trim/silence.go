package trim

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	silenceStartPattern = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndPattern   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// detectSilence runs ffmpeg's silencedetect filter over the whole file and
// parses the silence_start / silence_end markers from stderr. A trailing
// silence_start without a matching silence_end means the silence extends to
// the end of the file, so the total duration closes the interval.
func (e *Engine) detectSilence(ctx context.Context, input string, total float64) ([]Interval, error) {
	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", e.cfg.SilenceThresholdDB, e.cfg.MinSilenceSeconds)
	cmd := exec.CommandContext(ctx, e.cfg.FFmpegBinary, "-i", input, "-af", filter, "-f", "null", "-")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("silencedetect: %w: %s", err, tail(string(output)))
	}

	starts := parseMarkers(silenceStartPattern, string(output))
	ends := parseMarkers(silenceEndPattern, string(output))
	if len(starts) > len(ends) {
		ends = append(ends, total)
	}

	intervals := make([]Interval, 0, len(ends))
	for i := range ends {
		if i >= len(starts) {
			break
		}
		intervals = append(intervals, Interval{Start: starts[i], End: ends[i]})
	}
	return intervals, nil
}

func parseMarkers(pattern *regexp.Regexp, output string) []float64 {
	matches := pattern.FindAllStringSubmatch(output, -1)
	values := make([]float64, 0, len(matches))
	for _, match := range matches {
		parsed, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		values = append(values, parsed)
	}
	return values
}

func tail(output string) string {
	output = strings.TrimSpace(output)
	const limit = 400
	if len(output) <= limit {
		return output
	}
	return "..." + output[len(output)-limit:]
}
