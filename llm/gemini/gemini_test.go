package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carecost/carecost/llm"
	"github.com/carecost/carecost/message"
)

func TestGenerateWirePayload(t *testing.T) {
	var payload map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"about $375"}]}}]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = server.URL
	provider := New(cfg)

	resp, err := provider.Generate(context.Background(), &llm.GenerateRequest{
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, "estimate costs"),
			message.NewMessage(message.RoleUser, "knee MRI"),
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := resp.Message.Text(); got != "about $375" {
		t.Errorf("response text = %q", got)
	}

	for _, banned := range []string{"max_tokens", "temperature"} {
		if _, ok := payload[banned]; ok {
			t.Errorf("payload has top-level %q; sampling knobs belong in generationConfig", banned)
		}
	}
	raw, ok := payload["generationConfig"]
	if !ok {
		t.Fatal("payload missing generationConfig")
	}
	var gc struct {
		MaxOutputTokens int      `json:"maxOutputTokens"`
		Temperature     *float32 `json:"temperature"`
	}
	if err := json.Unmarshal(raw, &gc); err != nil {
		t.Fatalf("unmarshal generationConfig: %v", err)
	}
	if gc.MaxOutputTokens != 2048 {
		t.Errorf("maxOutputTokens = %d, want 2048", gc.MaxOutputTokens)
	}
	if gc.Temperature == nil || *gc.Temperature != 0 {
		t.Errorf("temperature should be an explicit 0, got %v", gc.Temperature)
	}
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid argument"}}`))
	}))
	defer server.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = server.URL
	provider := New(cfg)

	_, err := provider.Generate(context.Background(), &llm.GenerateRequest{
		Messages: []*message.Message{message.NewMessage(message.RoleUser, "hi")},
	})
	if err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	provider := New(DefaultConfig(""))
	_, err := provider.Generate(context.Background(), &llm.GenerateRequest{
		Messages: []*message.Message{message.NewMessage(message.RoleUser, "hi")},
	})
	if err == nil {
		t.Fatal("expected error without API key")
	}
}
