package rewriter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/postprocess"
)

const (
	DefaultGroqURL   = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama-3.1-8b-instant"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIRewriter talks to any OpenAI-compatible chat completions endpoint.
// Groq is the default.
type OpenAIRewriter struct {
	llm     llms.Model
	model   string
	timeout time.Duration
}

func NewOpenAIRewriter(cfg OpenAIConfig) (*OpenAIRewriter, error) {
	if cfg.APIKey == "" {
		return nil, internal.Service("openai.new", fmt.Errorf("API key required"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}

	return &OpenAIRewriter{llm: llm, model: cfg.Model, timeout: cfg.Timeout}, nil
}

func (r *OpenAIRewriter) Name() string {
	return "openai"
}

func (r *OpenAIRewriter) Model() string {
	return r.model
}

func (r *OpenAIRewriter) Rewrite(ctx context.Context, text string, d Directive) (string, error) {
	op := "openai." + d.Name

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	model := d.Model
	if model == "" {
		model = r.model
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, d.Instruction),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	response, err := r.llm.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithTemperature(d.Temperature),
	)
	if err != nil {
		return "", internal.Classify(op, err)
	}

	if len(response.Choices) == 0 {
		return "", internal.Malformed(op, fmt.Errorf("no response choices"))
	}

	rewritten := postprocess.Clean(response.Choices[0].Content)
	if rewritten == "" {
		return "", internal.Malformed(op, fmt.Errorf("empty rewrite returned"))
	}
	return rewritten, nil
}
