package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
)

// GoogleService uses the Cloud Translation v2 API. Credentials come from
// ServiceConfig.Credentials or, when empty, the application default credentials.
type GoogleService struct{}

func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	const op = "google.translate"

	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetTag, err := language.Parse(req.TargetLang)
	if err != nil {
		return fail(result, internal.Malformed(op, fmt.Errorf("invalid target language %q: %w", req.TargetLang, err)))
	}

	var opts *translate.Options
	if req.SourceLang != "" && req.SourceLang != "auto" {
		sourceTag, err := language.Parse(req.SourceLang)
		if err != nil {
			return fail(result, internal.Malformed(op, fmt.Errorf("invalid source language %q: %w", req.SourceLang, err)))
		}
		opts = &translate.Options{Source: sourceTag, Format: translate.Text}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := []option.ClientOption{}
	if cfg.Credentials != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.ProjectID != "" {
		clientOpts = append(clientOpts, option.WithQuotaProject(cfg.ProjectID))
	}

	client, err := translate.NewClient(ctx, clientOpts...)
	if err != nil {
		return fail(result, internal.Service(op, fmt.Errorf("failed to create client: %w", err)))
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{req.Text}, targetTag, opts)
	if err != nil {
		return fail(result, internal.Classify(op, fmt.Errorf("translation failed: %w", err)))
	}

	if len(translations) == 0 {
		return fail(result, internal.Malformed(op, fmt.Errorf("no translation returned")))
	}

	result.TranslatedText = translations[0].Text
	result.Confidence = 1.0
	if translations[0].Source != language.Und {
		result.Metadata = map[string]string{"detected_source": translations[0].Source.String()}
	}

	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return nil, nil
}
