package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/services"
)

const defaultHTTPTimeout = 120 * time.Second

// ImagePart is an inline image attachment for a generation request.
type ImagePart struct {
	MIME string
	Data []byte
}

// Client wraps the Gemini generateContent API for image generation and
// vision checks.
type Client struct {
	cfg        config.Gemini
	httpClient *http.Client
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

// NewClient constructs a Gemini client. A missing API key is a
// configuration error surfaced at construction, not at call time.
func NewClient(cfg config.Gemini, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "new_client", "missing gemini.api_key", nil)
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type responsePart struct {
	Text       string      `json:"text"`
	InlineData *inlineData `json:"inline_data"`
	InlineAlt  *inlineData `json:"inlineData"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []responsePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateImage sends the prompt plus image attachments and returns the
// generated image bytes. A technically successful response that carries no
// image payload is an integration error, which callers may treat as
// retryable.
func (c *Client) GenerateImage(ctx context.Context, prompt string, images []ImagePart) ([]byte, error) {
	response, err := c.generate(ctx, prompt, images, []string{"IMAGE", "TEXT"})
	if err != nil {
		return nil, err
	}

	for _, part := range collectParts(response) {
		data := part.InlineData
		if data == nil {
			data = part.InlineAlt
		}
		if data == nil || !strings.HasPrefix(data.MIMEType, "image/") {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(data.Data)
		if err != nil {
			return nil, services.Wrap(services.ErrIntegration, "gemini", "generate_image", "decode image payload", err)
		}
		return decoded, nil
	}

	return nil, services.Wrap(services.ErrIntegration, "gemini", "generate_image", "response contained no image payload", nil)
}

// GenerateText sends the prompt plus image attachments and returns the
// concatenated text parts of the response.
func (c *Client) GenerateText(ctx context.Context, prompt string, images []ImagePart) (string, error) {
	response, err := c.generate(ctx, prompt, images, []string{"TEXT"})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, part := range collectParts(response) {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

func (c *Client) generate(ctx context.Context, prompt string, images []ImagePart, modalities []string) (*generateResponse, error) {
	parts := make([]requestPart, 0, len(images)+1)
	for _, image := range images {
		parts = append(parts, requestPart{InlineData: &inlineData{
			MIMEType: image.MIME,
			Data:     base64.StdEncoding.EncodeToString(image.Data),
		}})
	}
	parts = append(parts, requestPart{Text: prompt})

	payload := map[string]any{
		"contents": []any{map[string]any{"parts": parts}},
		"generationConfig": map[string]any{
			"responseModalities": modalities,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?%s", c.cfg.BaseURL, c.cfg.Model,
		url.Values{"key": {c.cfg.APIKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "gemini", "generate", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "gemini", "generate", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrTransient, "gemini", "generate",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var response generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, services.Wrap(services.ErrIntegration, "gemini", "generate", "decode response", err)
	}
	if len(response.Candidates) == 0 {
		return nil, services.Wrap(services.ErrIntegration, "gemini", "generate", "response contained no candidates", nil)
	}
	return &response, nil
}

func collectParts(response *generateResponse) []responsePart {
	if response == nil || len(response.Candidates) == 0 {
		return nil
	}
	return response.Candidates[0].Content.Parts
}
