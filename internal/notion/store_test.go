package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
)

func testStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default().Notion
	cfg.Token = "secret"
	cfg.MasterDBID = "master-db"
	cfg.VideoDBID = "video-db"
	cfg.BaseURL = server.URL

	store, err := NewStore(cfg, logging.NewNop(), WithClock(func() time.Time {
		return time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestNewStoreRequiresSettings(t *testing.T) {
	cfg := config.Default().Notion
	_, err := NewStore(cfg, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFindMatchingBuildsWindowFilter(t *testing.T) {
	var captured map[string]any
	store := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/databases/master-db/query" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Fatalf("notion version = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"page-1","properties":{"タイトル":{"title":[{"plain_text":"X"}]},"ステータス":{"select":{"name":"入力済み"}}}}]}`))
	}))

	start := time.Date(2026, 2, 9, 0, 1, 22, 0, time.UTC)
	item, err := store.FindMatching(context.Background(), start, 30*time.Minute)
	if err != nil {
		t.Fatalf("FindMatching: %v", err)
	}
	if item == nil || item.PageID != "page-1" {
		t.Fatalf("item = %+v", item)
	}

	conditions := captured["filter"].(map[string]any)["and"].([]any)
	if len(conditions) != 3 {
		t.Fatalf("filter conditions = %d, want 3", len(conditions))
	}
	after := conditions[1].(map[string]any)["date"].(map[string]any)["on_or_after"].(string)
	before := conditions[2].(map[string]any)["date"].(map[string]any)["on_or_before"].(string)
	if after != "2026-02-08T23:31:22Z" {
		t.Fatalf("on_or_after = %q", after)
	}
	if before != "2026-02-09T00:31:22Z" {
		t.Fatalf("on_or_before = %q", before)
	}
}

func TestFindMatchingNoResults(t *testing.T) {
	store := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	item, err := store.FindMatching(context.Background(), time.Now(), 30*time.Minute)
	if err != nil {
		t.Fatalf("FindMatching: %v", err)
	}
	if item != nil {
		t.Fatalf("item = %+v, want nil", item)
	}
}

func TestFindRetryableFilter(t *testing.T) {
	var captured map[string]any
	store := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"err-1","properties":{}},{"id":"err-2","properties":{}}]}`))
	}))

	items, err := store.FindRetryable(context.Background(), 3)
	if err != nil {
		t.Fatalf("FindRetryable: %v", err)
	}
	if len(items) != 2 || items[0].PageID != "err-1" {
		t.Fatalf("items = %+v", items)
	}

	conditions := captured["filter"].(map[string]any)["and"].([]any)
	status := conditions[0].(map[string]any)["select"].(map[string]any)["equals"].(string)
	if status != "エラー" {
		t.Fatalf("status filter = %q", status)
	}
	limit := conditions[1].(map[string]any)["number"].(map[string]any)["less_than"].(float64)
	if limit != 3 {
		t.Fatalf("retry limit = %v", limit)
	}
}

func TestUpdateStatusErrorTransitionIncrementsRetry(t *testing.T) {
	var patched map[string]any
	store := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"page-1","properties":{"リトライ回数":{"number":2}}}`))
		case http.MethodPatch:
			if err := json.NewDecoder(r.Body).Decode(&patched); err != nil {
				t.Fatalf("decode patch: %v", err)
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))

	err := store.UpdateStatus(context.Background(), "page-1", StatusManual, StatusUpdate{ErrorMessage: "upload failed"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	props := patched["properties"].(map[string]any)
	if got := props["リトライ回数"].(map[string]any)["number"].(float64); got != 3 {
		t.Fatalf("retry count = %v, want 3", got)
	}
	status := props["ステータス"].(map[string]any)["select"].(map[string]any)["name"].(string)
	if status != "要手動対応" {
		t.Fatalf("status = %q", status)
	}
	errorText := props["エラー内容"].(map[string]any)["rich_text"].([]any)
	if len(errorText) != 1 {
		t.Fatalf("error message should be set, got %v", errorText)
	}
	if _, ok := props["処理日時"]; !ok {
		t.Fatal("processing timestamp must always be written")
	}
}

func TestUpdateStatusSuccessClearsErrorAndSetsURL(t *testing.T) {
	var patched map[string]any
	requests := 0
	store := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method != http.MethodPatch {
			t.Fatalf("non-error transition must not read the page first, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&patched); err != nil {
			t.Fatalf("decode patch: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	}))

	err := store.UpdateStatus(context.Background(), "page-1", StatusComplete, StatusUpdate{PublishedURL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want 1", requests)
	}

	props := patched["properties"].(map[string]any)
	if _, ok := props["リトライ回数"]; ok {
		t.Fatal("success transition must not touch the retry counter")
	}
	errorText := props["エラー内容"].(map[string]any)["rich_text"].([]any)
	if len(errorText) != 0 {
		t.Fatalf("error message must be cleared, got %v", errorText)
	}
	if got := props["YouTubeリンク"].(map[string]any)["url"].(string); got != "https://youtu.be/abc" {
		t.Fatalf("url = %q", got)
	}
}

func TestCreateArchiveRecordPayload(t *testing.T) {
	var created map[string]any
	store := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"archive-1"}`))
	}))

	pageID, err := store.CreateArchiveRecord(context.Background(), ArchiveRecord{
		Title:        "第12回 グルコン",
		Category:     "グルコン",
		Date:         "2026-02-09",
		Lecturer:     "みくぽん",
		VideoURL:     "https://youtu.be/abc",
		ThumbnailURL: "https://i.ytimg.com/vi/abc/maxresdefault.jpg",
	})
	if err != nil {
		t.Fatalf("CreateArchiveRecord: %v", err)
	}
	if pageID != "archive-1" {
		t.Fatalf("page id = %q", pageID)
	}

	parent := created["parent"].(map[string]any)["database_id"].(string)
	if parent != "video-db" {
		t.Fatalf("parent db = %q", parent)
	}
	children := created["children"].([]any)
	if len(children) != 1 {
		t.Fatalf("children = %d, want embedded video block", len(children))
	}
	block := children[0].(map[string]any)
	if block["type"].(string) != "video" {
		t.Fatalf("block type = %v", block["type"])
	}
}

func TestUpdateStatusSurfacesHTTPErrors(t *testing.T) {
	store := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	err := store.UpdateStatus(context.Background(), "page-1", StatusProcessing, StatusUpdate{})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
