package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillsenselab/clipwise/llm"
)

func TestProvider_CompleteStructured(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "{\"segments\":[]}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 50, "completion_tokens": 10, "total_tokens": 60}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL, APIKey: "test-key"})
	resp, err := p.CompleteStructured(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "segment this"}},
	}, map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if resp.Content != `{"segments":[]}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 60 {
		t.Errorf("expected 60 total tokens, got %d", resp.Usage.TotalTokens)
	}

	format, ok := gotReq.ResponseFormat.(map[string]any)
	if !ok || format["type"] != "json_schema" {
		t.Errorf("expected json_schema response format, got %v", gotReq.ResponseFormat)
	}
}

func TestProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model": "gpt-4o-mini", "choices": []}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL, APIKey: "test-key"})
	_, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestFactory_RequiresAPIKey(t *testing.T) {
	if _, err := Factory()(map[string]any{}); err == nil {
		t.Error("expected error without api_key")
	}
	p, err := Factory()(map[string]any{"api_key": "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != ProviderName {
		t.Errorf("expected %q, got %q", ProviderName, p.Name())
	}
}
