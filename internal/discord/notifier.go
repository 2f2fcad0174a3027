package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/logging"
)

const embedColor = 0x58ACFF

// Announcement carries everything the published-video embed shows.
type Announcement struct {
	Title         string
	VideoURL      string
	ThumbnailURL  string
	LecturerName  string
	Category      string
	ThumbnailText string
	StudentName   string
	NotionURL     string
}

// Notifier posts a published-video embed to a Discord webhook. It is
// strictly best effort: Announce reports success as a bool and never
// returns an error, so a webhook outage cannot fail a pipeline item.
type Notifier struct {
	cfg        config.Discord
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the notifier.
type Option func(*Notifier)

// WithHTTPClient substitutes the transport, for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(n *Notifier) { n.httpClient = httpClient }
}

// NewNotifier builds a notifier. An empty webhook URL is not an error;
// the notifier becomes a no-op that reports false.
func NewNotifier(cfg config.Discord, logger *slog.Logger, opts ...Option) *Notifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	notifier := &Notifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.WithComponent(logger, "discord"),
	}
	for _, opt := range opts {
		opt(notifier)
	}
	return notifier
}

// Announce posts the embed and reports whether Discord accepted it.
func (n *Notifier) Announce(ctx context.Context, a Announcement) bool {
	if n.cfg.WebhookURL == "" {
		n.logger.Debug("webhook not configured, skipping announcement")
		return false
	}

	payload := map[string]any{
		"embeds": []any{n.buildEmbed(a)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("could not encode announcement", logging.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("could not build announcement request", logging.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("announcement request failed", logging.Error(err))
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("webhook rejected announcement", logging.Int("status", resp.StatusCode))
		return false
	}
	n.logger.Info("announcement posted", logging.String("title", a.Title))
	return true
}

func (n *Notifier) buildEmbed(a Announcement) map[string]any {
	embed := map[string]any{
		"title":       "🎬 新しい動画がアップロードされました",
		"description": a.Title,
		"url":         a.VideoURL,
		"color":       embedColor,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if a.ThumbnailURL != "" {
		embed["image"] = map[string]any{"url": a.ThumbnailURL}
	}

	fields := []map[string]any{
		{"name": "講師", "value": orUnset(a.LecturerName), "inline": true},
		{"name": "種別", "value": orUnset(a.Category), "inline": true},
	}
	if a.ThumbnailText != "" {
		fields = append(fields, map[string]any{"name": "サムネ文言", "value": a.ThumbnailText, "inline": false})
	}
	if a.StudentName != "" {
		fields = append(fields, map[string]any{"name": "生徒名", "value": a.StudentName, "inline": true})
	}
	if a.VideoURL != "" {
		fields = append(fields, map[string]any{
			"name":   "YouTube",
			"value":  fmt.Sprintf("[▶ YouTubeで視聴](%s)", a.VideoURL),
			"inline": false,
		})
	}
	if a.NotionURL != "" {
		fields = append(fields, map[string]any{
			"name":   "Notion",
			"value":  fmt.Sprintf("[レコードを開く](%s)", a.NotionURL),
			"inline": false,
		})
	}
	embed["fields"] = fields
	return embed
}

func orUnset(value string) string {
	if value == "" {
		return "未設定"
	}
	return value
}
