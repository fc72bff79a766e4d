package rewriter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/postprocess"
)

// OllamaRewriter uses a local Ollama model. The directive goes in the
// system field so the text itself is sent untouched.
type OllamaRewriter struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func NewOllamaRewriter(model, baseURL string, timeout time.Duration) *OllamaRewriter {
	if model == "" {
		model = "llama3.2"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaRewriter{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *OllamaRewriter) Name() string {
	return "ollama"
}

func (r *OllamaRewriter) Rewrite(ctx context.Context, text string, d Directive) (string, error) {
	op := "ollama." + d.Name

	model := d.Model
	if model == "" {
		model = r.model
	}

	jsonData, err := json.Marshal(ollamaRequest{
		Model:   model,
		System:  d.Instruction,
		Prompt:  text,
		Stream:  false,
		Options: ollamaOptions{Temperature: d.Temperature},
	})
	if err != nil {
		return "", internal.Malformed(op, fmt.Errorf("failed to marshal rewrite request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", r.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", internal.Malformed(op, fmt.Errorf("failed to create rewrite request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", internal.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", internal.Service(op, fmt.Errorf("rewriter returned status %d", resp.StatusCode))
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", internal.Malformed(op, fmt.Errorf("failed to decode rewrite response: %w", err))
	}

	rewritten := postprocess.Clean(ollamaResp.Response)
	if rewritten == "" {
		return "", internal.Malformed(op, fmt.Errorf("empty rewrite returned"))
	}
	return rewritten, nil
}
