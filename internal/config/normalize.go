package config

import (
	"os"
	"strings"
)

// envOverrides maps environment variable names onto credential fields.
// Environment values win over file values so deployments can keep secrets
// out of the config file entirely.
func (c *Config) applyEnv() {
	overlay := func(target *string, key string) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*target = value
		}
	}

	overlay(&c.Zoom.AccountID, "ZOOM_ACCOUNT_ID")
	overlay(&c.Zoom.ClientID, "ZOOM_CLIENT_ID")
	overlay(&c.Zoom.ClientSecret, "ZOOM_CLIENT_SECRET")
	overlay(&c.Notion.Token, "NOTION_TOKEN")
	overlay(&c.Notion.MasterDBID, "NOTION_MASTER_DB_ID")
	overlay(&c.Notion.VideoDBID, "NOTION_VIDEO_DB_ID")
	overlay(&c.YouTube.ClientID, "YOUTUBE_CLIENT_ID")
	overlay(&c.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET")
	overlay(&c.YouTube.RefreshToken, "YOUTUBE_REFRESH_TOKEN")
	overlay(&c.Gemini.APIKey, "GEMINI_API_KEY")
	overlay(&c.Gemini.Model, "GEMINI_MODEL")
	overlay(&c.Discord.WebhookURL, "DISCORD_WEBHOOK_URL")
}

func (c *Config) normalize() {
	c.Paths.StagingDir = expandHome(strings.TrimSpace(c.Paths.StagingDir))
	c.Paths.LogDir = expandHome(strings.TrimSpace(c.Paths.LogDir))
	c.Paths.TemplatesDir = expandHome(strings.TrimSpace(c.Paths.TemplatesDir))
	c.Paths.AssetsDir = expandHome(strings.TrimSpace(c.Paths.AssetsDir))
	c.Paths.OutputDir = expandHome(strings.TrimSpace(c.Paths.OutputDir))
	c.Journal.Path = expandHome(strings.TrimSpace(c.Journal.Path))

	c.Pipeline.FilePolicy = strings.ToLower(strings.TrimSpace(c.Pipeline.FilePolicy))
	if c.Pipeline.FilePolicy == "" {
		c.Pipeline.FilePolicy = defaultFilePolicy
	}
	if c.Pipeline.MatchWindowMinutes <= 0 {
		c.Pipeline.MatchWindowMinutes = defaultMatchWindowMin
	}
	if c.Pipeline.LookbackHours <= 0 {
		c.Pipeline.LookbackHours = defaultLookbackHours
	}
	if c.Pipeline.MaxRetries <= 0 {
		c.Pipeline.MaxRetries = defaultMaxRetries
	}
	if c.Pipeline.ThumbnailMaxAttempts <= 0 {
		c.Pipeline.ThumbnailMaxAttempts = defaultThumbnailRetries
	}
	if c.YouTube.ChunkMiB <= 0 {
		c.YouTube.ChunkMiB = defaultUploadChunkMiB
	}
	if c.Trim.EdgeSeconds <= 0 {
		c.Trim.EdgeSeconds = defaultEdgeSeconds
	}
	if c.Trim.MinSilenceSeconds <= 0 {
		c.Trim.MinSilenceSeconds = defaultMinSilence
	}
	if c.Trim.FFmpegBinary == "" {
		c.Trim.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Trim.FFprobeBinary == "" {
		c.Trim.FFprobeBinary = defaultFFprobeBinary
	}
}
