// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelpress/internal/config"
)

// ConfigOption mutates the test configuration before it is returned.
type ConfigOption func(*config.Config)

// WithFilePolicy sets the recording file policy.
func WithFilePolicy(policy string) ConfigOption {
	return func(cfg *config.Config) { cfg.Pipeline.FilePolicy = policy }
}

// WithMaxRetries sets the retry budget.
func WithMaxRetries(retries int) ConfigOption {
	return func(cfg *config.Config) { cfg.Pipeline.MaxRetries = retries }
}

// NewConfig returns a configuration rooted in temporary directories,
// with placeholder credentials so constructors pass validation.
func NewConfig(t *testing.T, opts ...ConfigOption) *config.Config {
	t.Helper()
	defaults := config.Default()
	cfg := &defaults
	base := t.TempDir()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.TemplatesDir = filepath.Join(base, "templates")
	cfg.Paths.AssetsDir = filepath.Join(base, "assets")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Journal.Path = filepath.Join(base, "journal.db")

	cfg.Zoom.AccountID = "test-account"
	cfg.Zoom.ClientID = "test-client"
	cfg.Zoom.ClientSecret = "test-secret"
	cfg.Notion.Token = "test-token"
	cfg.Notion.MasterDBID = "master-db"
	cfg.Notion.VideoDBID = "video-db"
	cfg.YouTube.ClientID = "test-client"
	cfg.YouTube.ClientSecret = "test-secret"
	cfg.YouTube.RefreshToken = "test-refresh"
	cfg.Gemini.APIKey = "test-key"

	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test configuration is invalid: %v", err)
	}
	return cfg
}

// StubBinary writes an executable shell script into dir and returns its
// path. The script body runs under /bin/sh.
func StubBinary(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}
