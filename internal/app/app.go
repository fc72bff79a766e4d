// Package app assembles the humanize pipeline from a loaded config. The CLI
// and the Lambda function share it.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/aidetect"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/config"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/handler"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/langcheck"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/orchestrator"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/rewriter"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/store"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/translator"
)

const defaultOpenAIURL = "https://api.openai.com/v1"

// NewTranslator constructs the round-trip translation backend named in c.
func NewTranslator(c *config.Config) (translator.TranslationService, error) {
	tc := c.Translator
	switch tc.Service {
	case "mymemory":
		return translator.NewMyMemoryService(tc.MyMemoryEmail, tc.MyMemoryURL, tc.Timeout), nil
	case "google":
		return translator.NewGoogleService(), nil
	case "ollama":
		var models []string
		if tc.OllamaModel != "" {
			models = []string{tc.OllamaModel}
		}
		return translator.NewOllamaTranslator(tc.OllamaURL, models, tc.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown translator service: %s", tc.Service)
	}
}

func ServiceConfig(c *config.Config) translator.ServiceConfig {
	return translator.ServiceConfig{
		Credentials: c.Translator.Credentials,
		ProjectID:   c.Translator.ProjectID,
		Timeout:     c.Translator.Timeout,
		Model:       c.Translator.OllamaModel,
	}
}

func NewRewriter(c *config.Config) (rewriter.Rewriter, error) {
	rc := c.Rewriter
	switch rc.Provider {
	case "groq", "openai":
		baseURL := rc.BaseURL
		if baseURL == "" && rc.Provider == "openai" {
			baseURL = defaultOpenAIURL
		}
		r, err := rewriter.NewOpenAIRewriter(rewriter.OpenAIConfig{
			APIKey:  rc.APIKey,
			BaseURL: baseURL,
			Model:   rc.Model,
			Timeout: rc.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("%s rewriter (set GROQ_API_KEY or rewriter.api_key): %w", rc.Provider, err)
		}
		return r, nil
	case "ollama":
		return rewriter.NewOllamaRewriter(rc.Model, rc.OllamaURL, rc.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown rewriter provider: %s", rc.Provider)
	}
}

func NewDetector(c *config.Config) *aidetect.ZeroGPT {
	return aidetect.NewZeroGPT(c.Detector.URL, c.Detector.Timeout)
}

func NewOrchestrator(c *config.Config, logger *slog.Logger, t translator.TranslationService, r rewriter.Rewriter, d aidetect.Detector) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if c.ValidateLanguage {
		opts = append(opts, orchestrator.WithLanguageCheck(langcheck.New(c.SourceLang, c.TargetLang)))
	}
	return orchestrator.New(t, r, d, orchestrator.OrchestratorConfig{
		MaxRetries: c.MaxRetries,
		SourceLang: c.SourceLang,
		TargetLang: c.TargetLang,
		Service:    ServiceConfig(c),
	}, opts...)
}

// NewHandler wires the whole pipeline. The returned func closes the history
// database when one was opened.
func NewHandler(c *config.Config, logger *slog.Logger) (*handler.Handler, func() error, error) {
	t, err := NewTranslator(c)
	if err != nil {
		return nil, nil, err
	}
	r, err := NewRewriter(c)
	if err != nil {
		return nil, nil, err
	}
	d := NewDetector(c)

	opts := []handler.Option{handler.WithLogger(logger)}
	closeFn := func() error { return nil }
	if c.History.Enabled {
		db, err := OpenStore(c.History.DBPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, handler.WithRecorder(db))
		closeFn = db.Close
	}

	h := handler.New(NewOrchestrator(c, logger, t, r, d), d, handler.Config{
		SourceLang: c.SourceLang,
		TargetLang: c.TargetLang,
		MaxRetries: c.MaxRetries,
		Translator: t.Name(),
		Rewriter:   c.Rewriter.Provider,
	}, opts...)
	return h, closeFn, nil
}

// OpenStore opens the history database, creating its directory first.
func OpenStore(dbPath string) (*store.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
