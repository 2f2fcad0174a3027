package config

import (
	"fmt"
	"strings"
)

var filePolicies = map[string]struct{}{
	"all":     {},
	"first":   {},
	"largest": {},
}

// FilePolicies returns the accepted values for pipeline.file_policy.
func FilePolicies() []string {
	return []string{"all", "first", "largest"}
}

// Validate checks structural settings. Credential presence is deliberately
// not checked here: each API client reports a configuration error when it
// is constructed without the credentials it needs, so an unconfigured
// Discord webhook (for example) degrades instead of blocking startup.
func (c *Config) Validate() error {
	if _, ok := filePolicies[c.Pipeline.FilePolicy]; !ok {
		return fmt.Errorf("pipeline.file_policy: unsupported value %q (expected one of %s)",
			c.Pipeline.FilePolicy, strings.Join(FilePolicies(), ", "))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.YouTube.Privacy {
	case "", "public", "private", "unlisted":
	default:
		return fmt.Errorf("youtube.privacy: unsupported value %q", c.YouTube.Privacy)
	}
	if c.Paths.StagingDir == "" {
		return fmt.Errorf("paths.staging_dir: must not be empty")
	}
	return nil
}
