package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
)

// Client uploads videos with the resumable upload protocol and sets
// their thumbnails. Authentication rides on a refresh token; the token
// source mints and caches access tokens as needed.
type Client struct {
	cfg        config.YouTube
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *slog.Logger
	chunkSize  int64
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient substitutes the transport, for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTokenSource substitutes the token source, for tests.
func WithTokenSource(tokens oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// NewClient validates credentials and builds a client.
func NewClient(cfg config.YouTube, logger *slog.Logger, opts ...Option) (*Client, error) {
	client := &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     logging.WithComponent(logger, "youtube"),
		chunkSize:  int64(cfg.ChunkMiB) * 1024 * 1024,
	}
	if client.chunkSize <= 0 {
		client.chunkSize = 10 * 1024 * 1024
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.tokens == nil {
		var missing []string
		if cfg.ClientID == "" {
			missing = append(missing, "youtube.client_id")
		}
		if cfg.ClientSecret == "" {
			missing = append(missing, "youtube.client_secret")
		}
		if cfg.RefreshToken == "" {
			missing = append(missing, "youtube.refresh_token")
		}
		if len(missing) > 0 {
			return nil, services.Wrap(services.ErrConfiguration, "youtube", "credentials",
				"missing "+strings.Join(missing, ", "), nil)
		}
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		}
		client.tokens = oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	}
	return client, nil
}

// Video is the metadata attached to an upload.
type Video struct {
	Title       string
	Description string
	Tags        []string
}

// Upload sends the file through the resumable protocol and returns the
// new video id. The session is opened with the video metadata, then the
// file streams in fixed-size chunks; the final chunk's response carries
// the id.
func (c *Client) Upload(ctx context.Context, path string, video Video) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "youtube", "upload", path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "youtube", "upload", path, err)
	}
	total := info.Size()
	if total == 0 {
		return "", services.Wrap(services.ErrValidation, "youtube", "upload", "file is empty: "+path, nil)
	}

	sessionURL, err := c.openSession(ctx, video, total)
	if err != nil {
		return "", err
	}
	c.logger.Info("resumable upload session opened",
		logging.String("title", video.Title),
		logging.Int64("bytes", total))

	return c.sendChunks(ctx, sessionURL, file, total)
}

// openSession initiates the resumable upload and returns the session
// URL from the Location header.
func (c *Client) openSession(ctx context.Context, video Video, total int64) (string, error) {
	metadata := map[string]any{
		"snippet": map[string]any{
			"title":       video.Title,
			"description": video.Description,
			"tags":        video.Tags,
			"categoryId":  c.cfg.CategoryID,
		},
		"status": map[string]any{
			"privacyStatus": c.cfg.Privacy,
		},
	}
	body, err := json.Marshal(metadata)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "youtube", "open_session", "encode metadata", err)
	}

	endpoint := c.cfg.UploadURL + "?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "youtube", "open_session", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")
	req.Header.Set("X-Upload-Content-Length", fmt.Sprintf("%d", total))
	if err := c.authorize(req); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "youtube", "open_session", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", c.statusError("open_session", resp)
	}
	sessionURL := resp.Header.Get("Location")
	if sessionURL == "" {
		return "", services.Wrap(services.ErrIntegration, "youtube", "open_session",
			"response carried no session location", nil)
	}
	return sessionURL, nil
}

// sendChunks streams the file to the session URL. Intermediate chunks
// must be acknowledged with 308; the last chunk's body holds the video
// resource.
func (c *Client) sendChunks(ctx context.Context, sessionURL string, file io.Reader, total int64) (string, error) {
	buf := make([]byte, c.chunkSize)
	var offset int64
	for offset < total {
		n, err := io.ReadFull(file, buf)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			err = nil
		}
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "youtube", "send_chunks", "read chunk", err)
		}
		if n == 0 {
			return "", services.Wrap(services.ErrIntegration, "youtube", "send_chunks",
				"file ended before declared size", nil)
		}

		end := offset + int64(n) - 1
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(buf[:n]))
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "youtube", "send_chunks", "build request", err)
		}
		req.Header.Set("Content-Type", "video/mp4")
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, end, total))
		if err := c.authorize(req); err != nil {
			return "", err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "youtube", "send_chunks", "request failed", err)
		}

		final := end == total-1
		if final {
			videoID, err := c.finalChunkID(resp)
			if err != nil {
				return "", err
			}
			c.logger.Info("upload complete", logging.String("video_id", videoID))
			return videoID, nil
		}
		if resp.StatusCode != 308 {
			err := c.statusError("send_chunks", resp)
			resp.Body.Close()
			return "", err
		}
		resp.Body.Close()
		offset = end + 1
	}
	return "", services.Wrap(services.ErrIntegration, "youtube", "send_chunks", "no chunks sent", nil)
}

func (c *Client) finalChunkID(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.statusError("send_chunks", resp)
	}
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrIntegration, "youtube", "send_chunks", "decode final response", err)
	}
	if payload.ID == "" {
		return "", services.Wrap(services.ErrIntegration, "youtube", "send_chunks",
			"final response carried no video id", nil)
	}
	return payload.ID, nil
}

// SetThumbnail attaches a custom thumbnail to an uploaded video.
func (c *Client) SetThumbnail(ctx context.Context, videoID, imagePath string) error {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "youtube", "set_thumbnail", imagePath, err)
	}

	endpoint := c.cfg.ThumbnailURL + "?videoId=" + videoID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return services.Wrap(services.ErrTransient, "youtube", "set_thumbnail", "build request", err)
	}
	req.Header.Set("Content-Type", thumbnailMIME(imagePath))
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "youtube", "set_thumbnail", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError("set_thumbnail", resp)
	}
	return nil
}

// WatchURL returns the public watch link for a video id.
func WatchURL(videoID string) string {
	return "https://youtu.be/" + videoID
}

// ThumbnailURL returns the maximum-resolution thumbnail image URL for a
// video id.
func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg"
}

func (c *Client) authorize(req *http.Request) error {
	token, err := c.tokens.Token()
	if err != nil {
		return services.Wrap(services.ErrTransient, "youtube", "authorize", "obtain access token", err)
	}
	token.SetAuthHeader(req)
	return nil
}

func (c *Client) statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return services.Wrap(services.ErrTransient, "youtube", operation,
		fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
}

func thumbnailMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}
