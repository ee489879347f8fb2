package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quoterag/internal/domain"
)

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                    `{"a":1}`,
		"```json\n{\"a\":1}\n```":    `{"a":1}`,
		"```\n[1,2]\n```":            `[1,2]`,
		"  ```json {\"a\":1}```  ":   `{"a":1}`,
		"\n```JSON\n{\"a\":1}\n```\n": `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	var v map[string]any
	err := DecodeJSON("sorry, I cannot help", &v)
	var ofe *domain.OracleFormatError
	if !errors.As(err, &ofe) {
		t.Fatalf("expected OracleFormatError, got %v", err)
	}
	if ofe.Raw != "sorry, I cannot help" {
		t.Errorf("expected raw text preserved, got %q", ofe.Raw)
	}
}

func TestDecodeJSONFenced(t *testing.T) {
	var q domain.Quote
	raw := "```json\n{\"items\":[{\"name\":\"Bolt\",\"unit_price\":0.625,\"quantity\":500,\"total\":312.5}],\"total_amount\":312.5,\"total_cost\":250}\n```"
	if err := DecodeJSON(raw, &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(q.Items) != 1 || q.TotalAmount != 312.5 {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestDecodeJSONRejectsTrailingContent(t *testing.T) {
	cases := []string{
		`{"items":[],"total_amount":0} Note: I was unsure about these prices, please double check.`,
		`{"a":1}{"a":2}`,
		"```json\n[\"x\"]\n```\nHope this helps!",
	}
	for _, raw := range cases {
		var v any
		err := DecodeJSON(raw, &v)
		var ofe *domain.OracleFormatError
		if !errors.As(err, &ofe) {
			t.Errorf("DecodeJSON(%q): expected OracleFormatError, got %v", raw, err)
			continue
		}
		if ofe.Raw != raw {
			t.Errorf("expected raw text preserved, got %q", ofe.Raw)
		}
	}

	var v map[string]any
	if err := DecodeJSON("{\"a\":1}\n\n", &v); err != nil {
		t.Errorf("trailing whitespace must be accepted: %v", err)
	}
}

func TestOpenAICompatibleComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "glm-4-flash" || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"ok\":true}  "}}]}`))
	}))
	defer srv.Close()

	o, err := New(Config{Provider: "zhipu", APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := o.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOpenAICompatibleErrorStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	o, _ := New(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	if _, err := o.Complete(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFunc(t *testing.T) {
	var o domain.Oracle = Func(func(ctx context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})
	out, _ := o.Complete(context.Background(), "x")
	if out != "echo:x" {
		t.Errorf("unexpected %q", out)
	}
}
