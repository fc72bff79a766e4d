// Package translator holds the translation backends used for the round-trip
// step of the humanize pipeline.
//
// A backend reports failures as classified *internal.Failure errors and also
// mirrors the message into ServiceResult.Error. It never retries on its own.
package translator

import (
	"context"
	"time"
)

// ServiceConfig carries per-call settings. Each backend reads only the
// fields it understands.
type ServiceConfig struct {
	Credentials string        // google: service account file
	ProjectID   string        // google: quota project
	Model       string        // ollama: overrides the random model pick
	Timeout     time.Duration // bounds the call; DefaultTimeout when zero
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Confidence     float64           `json:"confidence"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

// TranslationService is one translation backend. IsAvailable and
// SupportedLanguages back the preflight check; an empty language list means
// the backend accepts anything.
type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// DefaultTimeout bounds a single translation call when the caller sets none.
const DefaultTimeout = 30 * time.Second

// fail records err on result and returns both, the shape every backend uses on its error paths.
func fail(result *ServiceResult, err error) (*ServiceResult, error) {
	result.Error = err.Error()
	return result, err
}
