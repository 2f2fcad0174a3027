// Package preflight runs the environment checks the run command
// performs before touching any external service.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"reelpress/internal/config"
	"reelpress/internal/deps"
	"reelpress/internal/services"
)

// minFreeBytes is the floor for staging disk space. A single meeting
// recording can exceed a gigabyte, so anything below this is a hard stop.
const minFreeBytes = 5 << 30

// Check is one preflight result.
type Check struct {
	Name   string
	Detail string
	OK     bool
}

// Report is the full set of results plus an overall verdict.
type Report struct {
	Checks []Check
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.OK {
			return false
		}
	}
	return true
}

// Run executes all preflight checks. The report always covers every
// check; the error is non-nil when any of them failed.
func Run(cfg *config.Config) (Report, error) {
	var report Report
	report.Checks = append(report.Checks, binariesCheck(cfg.Trim)...)
	report.Checks = append(report.Checks, stagingCheck(cfg.Paths.StagingDir))
	report.Checks = append(report.Checks, credentialChecks(cfg)...)
	if !report.OK() {
		return report, services.Wrap(services.ErrConfiguration, "preflight", "run", "one or more checks failed", nil)
	}
	return report, nil
}

func binariesCheck(cfg config.Trim) []Check {
	tools, _ := deps.CheckBinaries(cfg)
	checks := make([]Check, 0, len(tools))
	for _, tool := range tools {
		check := Check{Name: tool.Name, OK: tool.Found, Detail: tool.Path}
		if !tool.Found {
			check.Detail = tool.Binary + " not found on PATH"
		}
		checks = append(checks, check)
	}
	return checks
}

// stagingCheck verifies the staging directory exists, is writable, and
// sits on a filesystem with enough free space for a recording.
func stagingCheck(dir string) Check {
	check := Check{Name: "staging"}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		check.Detail = fmt.Sprintf("cannot create %s: %v", dir, err)
		return check
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		check.Detail = fmt.Sprintf("cannot stat filesystem at %s: %v", dir, err)
		return check
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		check.Detail = fmt.Sprintf("%s has %.1f GiB free, need %.0f GiB", dir,
			float64(free)/(1<<30), float64(minFreeBytes)/(1<<30))
		return check
	}
	check.OK = true
	check.Detail = fmt.Sprintf("%s (%.1f GiB free)", dir, float64(free)/(1<<30))
	return check
}

// credentialChecks reports presence only; values are never logged.
func credentialChecks(cfg *config.Config) []Check {
	entries := []struct {
		name string
		set  bool
	}{
		{"zoom credentials", cfg.Zoom.AccountID != "" && cfg.Zoom.ClientID != "" && cfg.Zoom.ClientSecret != ""},
		{"notion credentials", cfg.Notion.Token != "" && cfg.Notion.MasterDBID != "" && cfg.Notion.VideoDBID != ""},
		{"youtube credentials", cfg.YouTube.ClientID != "" && cfg.YouTube.ClientSecret != "" && cfg.YouTube.RefreshToken != ""},
		{"gemini api key", cfg.Gemini.APIKey != ""},
	}
	checks := make([]Check, 0, len(entries))
	for _, entry := range entries {
		check := Check{Name: entry.name, OK: entry.set, Detail: "configured"}
		if !entry.set {
			check.Detail = "missing"
		}
		checks = append(checks, check)
	}
	return checks
}
