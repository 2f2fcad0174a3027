package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Client talks to the Zoom cloud recording API using server-to-server
// OAuth (account credentials grant).
type Client struct {
	cfg        config.Zoom
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource overrides the OAuth token source (useful for tests).
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(c *Client) {
		if source != nil {
			c.tokens = source
		}
	}
}

// NewClient constructs a Zoom client. Missing credentials are a
// configuration error: the recording source cannot degrade.
func NewClient(cfg config.Zoom, logger *slog.Logger, opts ...Option) (*Client, error) {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(cfg.AccountID) == "" {
		missing = append(missing, "zoom.account_id")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		missing = append(missing, "zoom.client_id")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		missing = append(missing, "zoom.client_secret")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "zoom", "new_client",
			"missing settings: "+strings.Join(missing, ", "), nil)
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logging.WithComponent(logger, "zoom"),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.tokens == nil {
		client.tokens = oauth2.ReuseTokenSource(nil, &accountTokenSource{
			cfg:        cfg,
			httpClient: client.httpClient,
		})
	}
	return client, nil
}

// accountTokenSource implements the Zoom account_credentials grant, which
// the stock client-credentials flow cannot express.
type accountTokenSource struct {
	cfg        config.Zoom
	httpClient *http.Client
}

func (s *accountTokenSource) Token() (*oauth2.Token, error) {
	endpoint := s.cfg.OAuthURL + "?" + url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {s.cfg.AccountID},
	}.Encode()

	req, err := http.NewRequest(http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("zoom token request: %w", err)
	}
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zoom token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("zoom token request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("zoom token decode: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("zoom token response missing access_token")
	}

	token := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
	}
	if payload.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return token, nil
}

// ListRecordings fetches cloud recordings for the authenticated user in
// the inclusive date window. Meetings whose files are all filtered out are
// excluded entirely.
func (c *Client) ListRecordings(ctx context.Context, from, to time.Time) ([]Meeting, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "zoom", "token", "", err)
	}

	endpoint := fmt.Sprintf("%s/users/me/recordings?%s", c.cfg.BaseURL, url.Values{
		"from":      {from.Format("2006-01-02")},
		"to":        {to.Format("2006-01-02")},
		"page_size": {"300"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "zoom", "list_recordings", "", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "zoom", "list_recordings", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrTransient, "zoom", "list_recordings",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload struct {
		Meetings []Meeting `json:"meetings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrIntegration, "zoom", "list_recordings", "decode response", err)
	}

	results := make([]Meeting, 0, len(payload.Meetings))
	for _, meeting := range payload.Meetings {
		accepted := make([]RecordingFile, 0, len(meeting.RecordingFiles))
		for _, file := range meeting.RecordingFiles {
			if file.Accepted() {
				accepted = append(accepted, file)
			}
		}
		if len(accepted) == 0 {
			continue
		}
		meeting.RecordingFiles = accepted
		results = append(results, meeting)
	}

	c.logger.Info("listed recordings",
		logging.String("from", from.Format("2006-01-02")),
		logging.String("to", to.Format("2006-01-02")),
		logging.Int("meetings", len(results)))
	return results, nil
}
