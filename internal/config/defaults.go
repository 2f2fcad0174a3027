package config

const (
	defaultStagingDir        = "~/.local/share/reelpress/staging"
	defaultLogDir            = "~/.local/share/reelpress/logs"
	defaultTemplatesDir      = "~/.config/reelpress/templates"
	defaultAssetsDir         = "~/.config/reelpress/assets"
	defaultOutputDir         = "~/.local/share/reelpress/generated"
	defaultJournalPath       = "~/.local/share/reelpress/journal.db"
	defaultZoomBaseURL       = "https://api.zoom.us/v2"
	defaultZoomOAuthURL      = "https://zoom.us/oauth/token"
	defaultNotionBaseURL     = "https://api.notion.com/v1"
	defaultNotionVersion     = "2022-06-28"
	defaultYouTubeUploadURL  = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultYouTubeThumbURL   = "https://www.googleapis.com/upload/youtube/v3/thumbnails/set"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultYouTubePrivacy    = "unlisted"
	defaultYouTubeCategoryID = "22"
	defaultUploadChunkMiB    = 10
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel       = "gemini-3-pro-image-preview"
	defaultGeminiTimeout     = 120
	defaultDiscordTimeout    = 10
	defaultSilenceThreshold  = -40.0
	defaultMinSilence        = 10.0
	defaultEdgeSeconds       = 1.0
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultMatchWindowMin    = 30
	defaultLookbackHours     = 24
	defaultMaxRetries        = 3
	defaultFilePolicy        = "all"
	defaultThumbnailRetries  = 3
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:   defaultStagingDir,
			LogDir:       defaultLogDir,
			TemplatesDir: defaultTemplatesDir,
			AssetsDir:    defaultAssetsDir,
			OutputDir:    defaultOutputDir,
		},
		Zoom: Zoom{
			BaseURL:  defaultZoomBaseURL,
			OAuthURL: defaultZoomOAuthURL,
		},
		Notion: Notion{
			BaseURL: defaultNotionBaseURL,
			Version: defaultNotionVersion,
		},
		YouTube: YouTube{
			Privacy:      defaultYouTubePrivacy,
			CategoryID:   defaultYouTubeCategoryID,
			ChunkMiB:     defaultUploadChunkMiB,
			UploadURL:    defaultYouTubeUploadURL,
			ThumbnailURL: defaultYouTubeThumbURL,
			TokenURL:     defaultGoogleTokenURL,
		},
		Gemini: Gemini{
			Model:          defaultGeminiModel,
			BaseURL:        defaultGeminiBaseURL,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Discord: Discord{
			TimeoutSeconds: defaultDiscordTimeout,
		},
		Trim: Trim{
			SilenceThresholdDB: defaultSilenceThreshold,
			MinSilenceSeconds:  defaultMinSilence,
			EdgeSeconds:        defaultEdgeSeconds,
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
		},
		Pipeline: Pipeline{
			MatchWindowMinutes:   defaultMatchWindowMin,
			LookbackHours:        defaultLookbackHours,
			MaxRetries:           defaultMaxRetries,
			FilePolicy:           defaultFilePolicy,
			ThumbnailMaxAttempts: defaultThumbnailRetries,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
