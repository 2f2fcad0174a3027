package zoom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"reelpress/internal/logging"
	"reelpress/internal/services"
)

// Download streams a recording file to destPath. The access token rides as
// a query parameter, which is what Zoom's download hosts expect. Transport
// and I/O errors surface to the caller; the per-item pipeline wrapper
// converts them into an item-level error.
func (c *Client) Download(ctx context.Context, downloadURL, destPath string) (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "token", "", err)
	}

	parsed, err := url.Parse(downloadURL)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "zoom", "download", "invalid download url", err)
	}
	query := parsed.Query()
	query.Set("access_token", token.AccessToken)
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "download", "", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "download", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "zoom", "download",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "download", "ensure destination directory", err)
	}
	file, err := os.Create(destPath)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "download", "create destination", err)
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "download", "stream body", err)
	}

	c.logger.Info("download complete",
		logging.String("path", destPath),
		logging.Int64("bytes", written))
	return destPath, nil
}
