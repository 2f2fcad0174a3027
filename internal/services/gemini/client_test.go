package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelpress/internal/config"
	"reelpress/internal/services"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default().Gemini
	cfg.APIKey = "key"
	cfg.BaseURL = server.URL

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.Default().Gemini)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateImageDecodesPayload(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G'}
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "key" {
			t.Fatalf("missing api key, query = %s", r.URL.RawQuery)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := payload["contents"].([]any)[0].(map[string]any)["parts"].([]any)
		if len(parts) != 2 {
			t.Fatalf("parts = %d, want image + prompt", len(parts))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"text": "here you go"},
					map[string]any{"inline_data": map[string]any{
						"mime_type": "image/png",
						"data":      base64.StdEncoding.EncodeToString(imageBytes),
					}},
				}},
			}},
		})
	}))

	got, err := client.GenerateImage(context.Background(), "edit this", []ImagePart{{MIME: "image/png", Data: []byte("base")}})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(got) != string(imageBytes) {
		t.Fatalf("image bytes = %v", got)
	}
}

func TestGenerateImageNoPayloadIsIntegrationError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry, text only"}]}}]}`))
	}))

	_, err := client.GenerateImage(context.Background(), "edit", nil)
	if !errors.Is(err, services.ErrIntegration) {
		t.Fatalf("expected integration error, got %v", err)
	}
}

func TestGenerateImageAcceptsCamelCaseInlineData(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mime_type":"image/png","data":"` +
			base64.StdEncoding.EncodeToString([]byte("img")) + `"}}]}}]}`))
	}))

	got, err := client.GenerateImage(context.Background(), "edit", nil)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(got) != "img" {
		t.Fatalf("image bytes = %q", got)
	}
}

func TestGenerateTextConcatenatesParts(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"ok\":"},{"text":"true}"}]}}]}`))
	}))

	got, err := client.GenerateText(context.Background(), "inspect", nil)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != `{"ok":true}` {
		t.Fatalf("text = %q", got)
	}
}

func TestGenerateHTTPErrorIsTransient(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))

	_, err := client.GenerateImage(context.Background(), "edit", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
