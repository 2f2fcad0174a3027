package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir   string `toml:"staging_dir"`
	LogDir       string `toml:"log_dir"`
	TemplatesDir string `toml:"templates_dir"`
	AssetsDir    string `toml:"assets_dir"`
	OutputDir    string `toml:"output_dir"`
}

// Zoom contains credentials and endpoints for the Zoom cloud recording API.
type Zoom struct {
	AccountID    string `toml:"account_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	OAuthURL     string `toml:"oauth_url"`
}

// Notion contains credentials and database identifiers for the work-item
// store and the video archive.
type Notion struct {
	Token      string `toml:"token"`
	MasterDBID string `toml:"master_db_id"`
	VideoDBID  string `toml:"video_db_id"`
	BaseURL    string `toml:"base_url"`
	Version    string `toml:"version"`
}

// YouTube contains OAuth credentials and upload settings.
type YouTube struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	Privacy      string `toml:"privacy"`
	CategoryID   string `toml:"category_id"`
	ChunkMiB     int    `toml:"chunk_mib"`
	UploadURL    string `toml:"upload_url"`
	ThumbnailURL string `toml:"thumbnail_url"`
	TokenURL     string `toml:"token_url"`
}

// Gemini contains settings for the image generation API.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Discord contains the completion webhook settings.
type Discord struct {
	WebhookURL     string `toml:"webhook_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Trim contains silence detection and trimming settings.
type Trim struct {
	SilenceThresholdDB float64 `toml:"silence_threshold_db"`
	MinSilenceSeconds  float64 `toml:"min_silence_seconds"`
	EdgeSeconds        float64 `toml:"edge_seconds"`
	FFmpegBinary       string  `toml:"ffmpeg_binary"`
	FFprobeBinary      string  `toml:"ffprobe_binary"`
}

// Pipeline contains orchestrator timing and policy settings.
type Pipeline struct {
	MatchWindowMinutes   int    `toml:"match_window_minutes"`
	LookbackHours        int    `toml:"lookback_hours"`
	MaxRetries           int    `toml:"max_retries"`
	FilePolicy           string `toml:"file_policy"`
	ThumbnailMaxAttempts int    `toml:"thumbnail_max_attempts"`
}

// Journal contains settings for the local run journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration object, constructed once at startup and
// injected into every collaborator.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Zoom     Zoom     `toml:"zoom"`
	Notion   Notion   `toml:"notion"`
	YouTube  YouTube  `toml:"youtube"`
	Gemini   Gemini   `toml:"gemini"`
	Discord  Discord  `toml:"discord"`
	Trim     Trim     `toml:"trim"`
	Pipeline Pipeline `toml:"pipeline"`
	Journal  Journal  `toml:"journal"`
	Logging  Logging  `toml:"logging"`
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return "~/.config/reelpress/config.toml"
}

// Load reads the configuration file at path (or the default location when
// path is empty), overlays environment credentials, normalizes paths, and
// validates the result. A missing file yields defaults rather than an
// error so credential-only environment setups work.
func Load(path string) (*Config, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultPath()
	}
	resolved = expandHome(resolved)

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment overlay.
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
