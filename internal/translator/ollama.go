package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/postprocess"
)

var DefaultOllamaModels = []string{
	"llama3.2",
	"gemma2:2b",
	"qwen2.5:3b",
	"mistral:7b",
}

// OllamaTranslator asks a local model for the translation. Without a
// configured model it picks one of its models at random for each call.
type OllamaTranslator struct {
	baseURL string
	models  []string
	client  *http.Client
}

func NewOllamaTranslator(baseURL string, models []string, timeout time.Duration) *OllamaTranslator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if len(models) == 0 {
		models = DefaultOllamaModels
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaTranslator{
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *OllamaTranslator) Name() string {
	return "ollama"
}

func (s *OllamaTranslator) pickModel() string {
	if len(s.models) == 0 {
		return DefaultOllamaModels[0]
	}
	return s.models[rand.Intn(len(s.models))]
}

func (s *OllamaTranslator) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	const op = "ollama.translate"

	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	model := cfg.Model
	if model == "" {
		model = s.pickModel()
	}

	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the detected language"
	}

	prompt := fmt.Sprintf(`Translate the following text from %s to %s.
Keep the meaning, tone and paragraph breaks. Only respond with the translation, nothing else.

Text:
%s`, sourceLang, req.TargetLang, req.Text)

	jsonData, err := json.Marshal(map[string]interface{}{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return fail(result, internal.Malformed(op, fmt.Errorf("failed to marshal request: %w", err)))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return fail(result, internal.Malformed(op, fmt.Errorf("failed to create request: %w", err)))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fail(result, internal.Transport(op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(result, internal.Service(op, fmt.Errorf("API returned status %d", resp.StatusCode)))
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return fail(result, internal.Malformed(op, fmt.Errorf("failed to decode response: %w", err)))
	}

	translated := postprocess.Clean(ollamaResp.Response)
	if translated == "" && req.Text != "" {
		return fail(result, internal.Malformed(op, fmt.Errorf("empty translation returned")))
	}

	result.TranslatedText = translated
	result.Confidence = 0.7
	result.Metadata = map[string]string{"model": model}

	return result, nil
}

func (s *OllamaTranslator) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/tags", s.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *OllamaTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar", "uk"}, nil
}

func (s *OllamaTranslator) Models() []string {
	return s.models
}
