package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"menu-planner/internal/core/ai/provider"
)

func TestGenerate(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[{"message":{"role":"assistant","content":"{\"name\":\"Tortilla\"}"}}],"usage":{"total_tokens":42}}`))
	}))
	defer server.Close()

	c := NewClient(provider.Config{APIKey: "secret", Model: "test/model", Timeout: 5 * time.Second, BaseURL: server.URL})
	resp, err := c.Generate(context.Background(), &provider.Request{
		Messages:  []provider.Message{{Role: provider.RoleSystem, Content: "s"}, {Role: provider.RoleUser, Content: "u"}},
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != `{"name":"Tortilla"}` {
		t.Errorf("Expected content, got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.Usage.TotalTokens)
	}
	if auth != "Bearer secret" {
		t.Errorf("Expected bearer token, got %q", auth)
	}
	if got.Model != "test/model" || len(got.Messages) != 2 || got.MaxTokens != 500 {
		t.Errorf("Unexpected request body: %+v", got)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"API error", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, "rate limited"},
		{"No choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"Empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, "empty content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(provider.Config{Model: "m", Timeout: time.Second, BaseURL: server.URL})
			_, err := c.Generate(context.Background(), &provider.Request{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
