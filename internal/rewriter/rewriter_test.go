package rewriter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
)

func TestDirectives(t *testing.T) {
	if Grammar.Temperature >= Humanize.Temperature {
		t.Errorf("grammar temperature %v should be lower than humanize %v", Grammar.Temperature, Humanize.Temperature)
	}
	if !strings.Contains(Humanize.Instruction, "Maintain exact meaning") {
		t.Error("humanize directive should carry the extra rules")
	}
	if !strings.HasPrefix(Grammar.Instruction, "Fix grammar only.") {
		t.Errorf("unexpected grammar instruction %q", Grammar.Instruction)
	}
}

func chatCompletion(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   DefaultGroqModel,
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func TestOpenAIRewriter_Rewrite_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != DefaultGroqModel {
			t.Errorf("expected default model, got %q", req.Model)
		}
		if req.Temperature != Humanize.Temperature {
			t.Errorf("expected temperature %v, got %v", Humanize.Temperature, req.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("expected system+user messages, got %+v", req.Messages)
		}
		if req.Messages[1].Content != "AI is transforming industries." {
			t.Errorf("unexpected user content %q", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("Sure, here's a more natural version: AI is kinda changing how stuff works."))
	}))
	defer server.Close()

	r, err := NewOpenAIRewriter(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.Rewrite(context.Background(), "AI is transforming industries.", Humanize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AI is kinda changing how stuff works." {
		t.Errorf("unexpected rewrite %q", got)
	}
}

func TestOpenAIRewriter_Rewrite_DirectiveModelOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama-3.3-70b-versatile" {
			t.Errorf("expected directive model, got %q", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("Fixed."))
	}))
	defer server.Close()

	r, err := NewOpenAIRewriter(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := Grammar
	d.Model = "llama-3.3-70b-versatile"
	if _, err := r.Rewrite(context.Background(), "fix me", d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAIRewriter_Rewrite_EmptyContentIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("   "))
	}))
	defer server.Close()

	r, err := NewOpenAIRewriter(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = r.Rewrite(context.Background(), "text", Humanize)
	if got := internal.KindOf(err); got != internal.KindMalformed {
		t.Errorf("expected malformed failure, got %v (%v)", got, err)
	}
}

func TestOpenAIRewriter_Rewrite_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	r, err := NewOpenAIRewriter(OpenAIConfig{APIKey: "bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := r.Rewrite(context.Background(), "text", Humanize); err == nil {
		t.Error("expected error for 401 response")
	}
}

func TestNewOpenAIRewriter_RequiresKey(t *testing.T) {
	_, err := NewOpenAIRewriter(OpenAIConfig{})
	if got := internal.KindOf(err); got != internal.KindService {
		t.Errorf("expected service failure, got %v (%v)", got, err)
	}
}

func TestOllamaRewriter_New(t *testing.T) {
	r := NewOllamaRewriter("", "", 0)

	if r.model != "llama3.2" {
		t.Errorf("expected default model 'llama3.2', got %q", r.model)
	}
	if r.baseURL != "http://localhost:11434" {
		t.Errorf("expected default baseURL, got %q", r.baseURL)
	}
	if r.client == nil {
		t.Error("expected non-nil HTTP client")
	}
}

func TestOllamaRewriter_Rewrite_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "llama3.2" {
			t.Errorf("expected model 'llama3.2', got %q", req.Model)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.System != Grammar.Instruction {
			t.Errorf("expected grammar directive as system prompt, got %q", req.System)
		}
		if req.Prompt != "he go to school" {
			t.Errorf("expected raw text as prompt, got %q", req.Prompt)
		}
		if req.Options.Temperature != Grammar.Temperature {
			t.Errorf("expected temperature %v, got %v", Grammar.Temperature, req.Options.Temperature)
		}

		json.NewEncoder(w).Encode(ollamaResponse{Response: "Corrected text: He goes to school."})
	}))
	defer server.Close()

	r := NewOllamaRewriter("llama3.2", server.URL, time.Second)

	got, err := r.Rewrite(context.Background(), "he go to school", Grammar)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "He goes to school." {
		t.Errorf("expected 'He goes to school.', got %q", got)
	}
}

func TestOllamaRewriter_Rewrite_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind internal.FailureKind
	}{
		{
			name:     "status error",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			wantKind: internal.KindService,
		},
		{
			name:     "bad json",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) },
			wantKind: internal.KindMalformed,
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(ollamaResponse{Response: ""})
			},
			wantKind: internal.KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			r := NewOllamaRewriter("llama3.2", server.URL, time.Second)
			_, err := r.Rewrite(context.Background(), "text", Humanize)
			if got := internal.KindOf(err); got != tt.wantKind {
				t.Errorf("expected %v failure, got %v (%v)", tt.wantKind, got, err)
			}
		})
	}
}

func TestOllamaRewriter_Rewrite_Unreachable(t *testing.T) {
	r := NewOllamaRewriter("llama3.2", "http://127.0.0.1:1", 200*time.Millisecond)

	_, err := r.Rewrite(context.Background(), "text", Humanize)
	if got := internal.KindOf(err); got != internal.KindTransport {
		t.Errorf("expected transport failure, got %v (%v)", got, err)
	}
}
