package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Store is the work-item store backed by two Notion databases: the master
// table holding pending work and the video archive. It is the system of
// record for item status and retry state.
//
// The retry counter update is a read-modify-write without an optimistic
// concurrency token; the design assumes a single pipeline instance per
// host, which the run lock enforces.
type Store struct {
	cfg        config.Notion
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes the store.
type Option func(*Store)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithClock overrides the timestamp source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs the store. Token and database identifiers are
// required; the work-item store cannot degrade.
func NewStore(cfg config.Notion, logger *slog.Logger, opts ...Option) (*Store, error) {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(cfg.Token) == "" {
		missing = append(missing, "notion.token")
	}
	if strings.TrimSpace(cfg.MasterDBID) == "" {
		missing = append(missing, "notion.master_db_id")
	}
	if strings.TrimSpace(cfg.VideoDBID) == "" {
		missing = append(missing, "notion.video_db_id")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "notion", "new_store",
			"missing settings: "+strings.Join(missing, ", "), nil)
	}

	store := &Store{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logging.WithComponent(logger, "notion"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// FindMatching queries the master database for a pending item whose start
// time falls within ±window of the given timestamp. The first result wins;
// further matches are not disambiguated.
func (s *Store) FindMatching(ctx context.Context, start time.Time, window time.Duration) (*WorkItem, error) {
	filter := map[string]any{
		"and": []any{
			map[string]any{
				"property": propStatus,
				"select":   map[string]any{"equals": string(StatusPending)},
			},
			map[string]any{
				"property": propStartTime,
				"date":     map[string]any{"on_or_after": start.Add(-window).Format(time.RFC3339)},
			},
			map[string]any{
				"property": propStartTime,
				"date":     map[string]any{"on_or_before": start.Add(window).Format(time.RFC3339)},
			},
		},
	}

	pages, err := s.queryMaster(ctx, filter, 10)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	item := parseWorkItem(pages[0])
	s.logger.Info("matched work item",
		logging.String(logging.FieldPageID, item.PageID),
		logging.String("title", item.Title))
	return &item, nil
}

// FindRetryable returns items in the error status whose retry count is
// still below maxRetries, in the order the database returns them.
func (s *Store) FindRetryable(ctx context.Context, maxRetries int) ([]WorkItem, error) {
	filter := map[string]any{
		"and": []any{
			map[string]any{
				"property": propStatus,
				"select":   map[string]any{"equals": string(StatusError)},
			},
			map[string]any{
				"property": propRetryCount,
				"number":   map[string]any{"less_than": maxRetries},
			},
		},
	}

	pages, err := s.queryMaster(ctx, filter, 100)
	if err != nil {
		return nil, err
	}
	items := make([]WorkItem, 0, len(pages))
	for _, page := range pages {
		items = append(items, parseWorkItem(page))
	}
	return items, nil
}

// UpdateStatus sets the item's status and processing timestamp. The error
// message property is cleared on non-error transitions and set on error
// transitions; the published URL is written only when provided. A
// transition into an error-class status reads the current retry count and
// writes back count+1.
func (s *Store) UpdateStatus(ctx context.Context, pageID string, status Status, update StatusUpdate) error {
	properties := map[string]any{
		propStatus:      map[string]any{"select": map[string]any{"name": string(status)}},
		propProcessedAt: map[string]any{"date": map[string]any{"start": s.now().UTC().Format(time.RFC3339)}},
	}

	errorText := []any{}
	if status.IsErrorClass() && update.ErrorMessage != "" {
		errorText = append(errorText, map[string]any{
			"text": map[string]any{"content": truncate(update.ErrorMessage, 2000)},
		})
	}
	properties[propErrorMessage] = map[string]any{"rich_text": errorText}

	if update.PublishedURL != "" {
		properties[propVideoURL] = map[string]any{"url": update.PublishedURL}
	}

	if status.IsErrorClass() {
		current, err := s.retryCount(ctx, pageID)
		if err != nil {
			return err
		}
		properties[propRetryCount] = map[string]any{"number": current + 1}
	}

	payload := map[string]any{"properties": properties}
	if err := s.do(ctx, http.MethodPatch, s.cfg.BaseURL+"/pages/"+pageID, payload, nil); err != nil {
		return services.Wrap(services.ErrTransient, "notion", "update_status", "page "+pageID, err)
	}
	s.logger.Info("updated work item status",
		logging.String(logging.FieldPageID, pageID),
		logging.String("status", string(status)))
	return nil
}

// CreateArchiveRecord writes the completion record into the video archive
// database, embedding the published video as page content.
func (s *Store) CreateArchiveRecord(ctx context.Context, record ArchiveRecord) (string, error) {
	properties := map[string]any{
		archivePropTitle: map[string]any{
			"title": []any{map[string]any{"text": map[string]any{"content": record.Title}}},
		},
		archivePropTag:      map[string]any{"select": map[string]any{"name": record.Category}},
		archivePropDate:     map[string]any{"date": map[string]any{"start": record.Date}},
		archivePropLecturer: map[string]any{"select": map[string]any{"name": record.Lecturer}},
		archivePropVideoURL: map[string]any{"url": record.VideoURL},
	}
	if record.ThumbnailURL != "" {
		properties[archivePropThumbnail] = map[string]any{
			"files": []any{map[string]any{
				"name":     "thumbnail.png",
				"type":     "external",
				"external": map[string]any{"url": record.ThumbnailURL},
			}},
		}
	}

	payload := map[string]any{
		"parent":     map[string]any{"database_id": s.cfg.VideoDBID},
		"properties": properties,
		"children": []any{map[string]any{
			"object": "block",
			"type":   "video",
			"video": map[string]any{
				"type":     "external",
				"external": map[string]any{"url": record.VideoURL},
			},
		}},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, s.cfg.BaseURL+"/pages", payload, &created); err != nil {
		return "", services.Wrap(services.ErrTransient, "notion", "create_archive_record", record.Title, err)
	}
	s.logger.Info("created archive record",
		logging.String(logging.FieldPageID, created.ID),
		logging.String("title", record.Title))
	return created.ID, nil
}

// PageURL builds the human-facing page URL for a page identifier.
func PageURL(pageID string) string {
	return "https://notion.so/" + strings.ReplaceAll(pageID, "-", "")
}

func (s *Store) retryCount(ctx context.Context, pageID string) (int, error) {
	var page fetchedPage
	if err := s.do(ctx, http.MethodGet, s.cfg.BaseURL+"/pages/"+pageID, nil, &page); err != nil {
		return 0, services.Wrap(services.ErrTransient, "notion", "retry_count", "page "+pageID, err)
	}
	return page.Properties[propRetryCount].number(), nil
}

func (s *Store) queryMaster(ctx context.Context, filter map[string]any, pageSize int) ([]fetchedPage, error) {
	payload := map[string]any{
		"filter":    filter,
		"page_size": pageSize,
	}
	var result struct {
		Results []fetchedPage `json:"results"`
	}
	err := s.do(ctx, http.MethodPost, s.cfg.BaseURL+"/databases/"+s.cfg.MasterDBID+"/query", payload, &result)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "notion", "query", "", err)
	}
	return result.Results, nil
}

func (s *Store) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Notion-Version", s.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
