// Package orchestrator runs the humanize pipeline: round-trip translation,
// a casual rewrite and an AI-likeness check, retried until the text passes
// or the retry budget runs out, followed by a single grammar pass.
//
// The pipeline never fails. Every adapter error is replaced by the stage's
// fallback in fallback.go and recorded on the attempt that hit it.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/aidetect"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/rewriter"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/translator"
)

const (
	DefaultMaxRetries = 3
	DefaultSourceLang = "en"
)

type OrchestratorConfig struct {
	// MaxRetries is the attempt budget. Zero means DefaultMaxRetries and a
	// negative value runs the grammar pass only.
	MaxRetries int
	SourceLang string
	// TargetLang has no default. Without it the round trip is skipped.
	TargetLang string
	// Service is handed to every translator call.
	Service translator.ServiceConfig
}

// LanguageChecker reports whether text is written in lang.
type LanguageChecker interface {
	Matches(text, lang string) (bool, error)
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLanguageCheck discards a round trip whose back-translation is not in
// the source language.
func WithLanguageCheck(c LanguageChecker) Option {
	return func(o *Orchestrator) { o.langCheck = c }
}

// Orchestrator holds only its adapters and configuration, so one value can
// serve concurrent calls.
type Orchestrator struct {
	translator translator.TranslationService
	rewriter   rewriter.Rewriter
	detector   aidetect.Detector
	langCheck  LanguageChecker
	config     OrchestratorConfig
	logger     *slog.Logger
}

func New(t translator.TranslationService, r rewriter.Rewriter, d aidetect.Detector, config OrchestratorConfig, opts ...Option) *Orchestrator {
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.SourceLang == "" {
		config.SourceLang = DefaultSourceLang
	}

	o := &Orchestrator{
		translator: t,
		rewriter:   r,
		detector:   d,
		config:     config,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Request carries one invocation. Empty or zero fields take the
// orchestrator's configured values.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	MaxRetries int
}

type StageFailure struct {
	Stage Stage
	Kind  internal.FailureKind
	Err   error
}

// Attempt is the trace of one pass through the loop. Text is the text the
// detector judged.
type Attempt struct {
	Index    int
	Text     string
	Verdict  bool
	Failures []StageFailure
}

type Result struct {
	Text     string
	Attempts []Attempt
	// Passed is true when some attempt got a human verdict.
	Passed bool
	// PolishFailure is set when the grammar pass fell back to its input.
	PolishFailure *StageFailure
	// Calls counts adapter invocations.
	Calls int
}

// Humanize returns the humanized text. It always returns a string; on
// adapter failures the affected stages pass their input through.
func (o *Orchestrator) Humanize(ctx context.Context, text, sourceLang, targetLang string, maxRetries int) string {
	return o.Run(ctx, Request{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		MaxRetries: maxRetries,
	}).Text
}

// Run is Humanize with the attempt trace.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Result {
	req = o.resolve(req)
	result := &Result{}

	if req.TargetLang == "" && req.MaxRetries > 0 {
		o.logger.Warn("no target language configured, skipping round-trip translation")
	}

	current := req.Text
	for i := 1; i <= req.MaxRetries; i++ {
		attempt := Attempt{Index: i}

		current = o.roundTrip(ctx, current, req, &attempt, result)
		current = o.rewriteStage(ctx, StageHumanize, rewriter.Humanize, current, i, &attempt.Failures, result)
		attempt.Text = current
		attempt.Verdict = o.detectStage(ctx, current, i, &attempt.Failures, result)

		result.Attempts = append(result.Attempts, attempt)
		o.logger.Info("attempt finished", "attempt", i, "of", req.MaxRetries, "human", attempt.Verdict)

		if attempt.Verdict {
			result.Passed = true
			break
		}
	}

	var polishFailures []StageFailure
	current = o.rewriteStage(ctx, StagePolish, rewriter.Grammar, current, 0, &polishFailures, result)
	if len(polishFailures) > 0 {
		result.PolishFailure = &polishFailures[0]
	}

	result.Text = current
	return result
}

func (o *Orchestrator) resolve(req Request) Request {
	if req.SourceLang == "" {
		req.SourceLang = o.config.SourceLang
	}
	if req.TargetLang == "" {
		req.TargetLang = o.config.TargetLang
	}
	if req.MaxRetries == 0 {
		req.MaxRetries = o.config.MaxRetries
	}
	if req.MaxRetries < 0 {
		req.MaxRetries = 0
	}
	return req
}
