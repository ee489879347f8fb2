package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, url string, dim int) *Client {
	t.Helper()
	t.Setenv("TEST_EMBED_KEY", "k")
	c, err := NewClient(Config{BaseURL: url, APIKeyEnv: "TEST_EMBED_KEY", Model: "embedding-3", Dimension: dim})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestEmbedOpenAIShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "embedding-3" || body["input"] != "bolt" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	v, err := c.Embed(context.Background(), "bolt")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v) != 3 || v[2] != float32(0.3) {
		t.Errorf("unexpected vector %v", v)
	}
}

func TestEmbedOllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,0]}`))
	}))
	defer srv.Close()

	v, err := newTestClient(t, srv.URL, 2).Embed(context.Background(), "bolt")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v) != 2 || v[0] != 1 {
		t.Errorf("unexpected vector %v", v)
	}
}

func TestEmbedDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv.URL, 2).Embed(context.Background(), "bolt"); err == nil {
		t.Fatal("expected error on 503")
	}
	if calls != 1 {
		t.Errorf("expected exactly one request, got %d", calls)
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2]}]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv.URL, 3).Embed(context.Background(), "bolt"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("TEST_EMBED_EMPTY", "")
	if _, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_EMPTY", Dimension: 3}); err == nil {
		t.Error("expected missing key error")
	}
}
