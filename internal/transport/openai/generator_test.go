package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func chatServer(t *testing.T, content string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if got != nil {
			_ = json.Unmarshal(body, got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGenerator(url, system string) *Generator {
	return NewGenerator(&GeneratorConfig{
		APIKey:       "k",
		BaseURL:      url,
		Model:        "mistral-small-latest",
		SystemPrompt: system,
		Provider:     "mistral",
		Logger:       zap.NewNop(),
	})
}

func TestGenerator_Generate(t *testing.T) {
	var req chatRequest
	srv := chatServer(t, "  Strong Go background; add Kubernetes.  ", &req)

	text, err := newTestGenerator(srv.URL, "You are a recruiter.").Generate(context.Background(), "Context:\n...")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "Strong Go background; add Kubernetes." {
		t.Errorf("text = %q", text)
	}
	if req.Model != "mistral-small-latest" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "Context:\n..." {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestGenerator_NoSystemPrompt(t *testing.T) {
	var req chatRequest
	srv := chatServer(t, "ok", &req)

	if _, err := newTestGenerator(srv.URL, "").Generate(context.Background(), "p"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestGenerator_GenerateJSON(t *testing.T) {
	var req chatRequest
	srv := chatServer(t, `{"suggestedAnswer": "I shipped it."}`, &req)

	text, err := newTestGenerator(srv.URL, "You are a recruiter.").GenerateJSON(context.Background(), "answer this")
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if text != `{"suggestedAnswer": "I shipped it."}` {
		t.Errorf("text = %q", text)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v", req.ResponseFormat)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "answer this" {
		t.Errorf("JSON generation must send the prompt alone, got %+v", req.Messages)
	}
}

func TestGenerator_PlainHasNoResponseFormat(t *testing.T) {
	var req chatRequest
	srv := chatServer(t, "ok", &req)
	if _, err := newTestGenerator(srv.URL, "").Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if req.ResponseFormat != nil {
		t.Errorf("unexpected response_format %+v", req.ResponseFormat)
	}
}

func TestGenerator_EmptyCompletion(t *testing.T) {
	srv := chatServer(t, "   ", nil)
	_, err := newTestGenerator(srv.URL, "").Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "overloaded"}})
	}))
	defer srv.Close()

	_, err := newTestGenerator(srv.URL, "").Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}
