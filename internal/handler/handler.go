// Package handler is the request/response surface around the humanize
// pipeline, shared by the CLI and the Lambda function.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/aidetect"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/orchestrator"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/store"
)

// MaxRetriesLimit caps the retry budget a caller may ask for.
const MaxRetriesLimit = 10

// Request is the input to the humanizer.
type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang,omitempty"`
	TargetLang string `json:"targetLang,omitempty"`
	MaxRetries int    `json:"maxRetries,omitempty"`
}

type AttemptSummary struct {
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	IsHuman  bool     `json:"isHuman"`
	Failures []string `json:"failures,omitempty"`
}

// Response is the output of the humanizer. Validation problems are reported
// in Error, never as a Go error.
type Response struct {
	Original     string           `json:"original,omitempty"`
	FinalText    string           `json:"finalText,omitempty"`
	IsHuman      bool             `json:"isHuman"`
	PassedInLoop bool             `json:"passedInLoop"`
	Attempts     []AttemptSummary `json:"attempts,omitempty"`
	RunID        string           `json:"runId,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// RunRecorder persists finished runs. *store.Store implements it.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *store.Run) error
}

// Config holds the defaults applied to requests and the names recorded in
// the run history.
type Config struct {
	SourceLang string
	TargetLang string
	MaxRetries int
	Translator string
	Rewriter   string
}

type Option func(*Handler)

func WithRecorder(r RunRecorder) Option {
	return func(h *Handler) { h.recorder = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

type Handler struct {
	orch     *orchestrator.Orchestrator
	detector aidetect.Detector
	recorder RunRecorder
	config   Config
	logger   *slog.Logger
}

func New(orch *orchestrator.Orchestrator, detector aidetect.Detector, config Config, opts ...Option) *Handler {
	if config.SourceLang == "" {
		config.SourceLang = orchestrator.DefaultSourceLang
	}
	h := &Handler{
		orch:     orch,
		detector: detector,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle humanizes req.Text and reports a final verdict on the result.
func (h *Handler) Handle(ctx context.Context, req Request) (*Response, error) {
	req = h.withDefaults(req)
	if err := validateRequest(req); err != nil {
		return &Response{Error: err.Error()}, nil
	}

	result := h.orch.Run(ctx, orchestrator.Request{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		MaxRetries: req.MaxRetries,
	})

	// The verdict is informational, so a failed check reads as "not human".
	isHuman, err := h.detector.IsHuman(ctx, result.Text)
	if err != nil {
		h.logger.Warn("final detection failed", "error", err)
		isHuman = false
	}

	resp := &Response{
		Original:     req.Text,
		FinalText:    result.Text,
		IsHuman:      isHuman,
		PassedInLoop: result.Passed,
		Attempts:     summarize(result.Attempts),
	}

	if h.recorder != nil {
		run := h.toRun(req, resp)
		if err := h.recorder.SaveRun(ctx, run); err != nil {
			h.logger.Warn("failed to record run", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}

	return resp, nil
}

func (h *Handler) withDefaults(req Request) Request {
	req.SourceLang = strings.TrimSpace(req.SourceLang)
	req.TargetLang = strings.TrimSpace(req.TargetLang)
	if req.SourceLang == "" {
		req.SourceLang = h.config.SourceLang
	}
	if req.TargetLang == "" {
		req.TargetLang = h.config.TargetLang
	}
	if req.MaxRetries == 0 {
		req.MaxRetries = h.config.MaxRetries
	}
	if req.MaxRetries == 0 {
		req.MaxRetries = orchestrator.DefaultMaxRetries
	}
	return req
}

// validateRequest checks the request after defaults are applied.
func validateRequest(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("text is required")
	}
	if req.TargetLang == "" {
		return fmt.Errorf("targetLang is required")
	}
	if strings.EqualFold(req.SourceLang, req.TargetLang) {
		return fmt.Errorf("sourceLang and targetLang must be different")
	}
	if req.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must not be negative")
	}
	if req.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("maxRetries must be at most %d", MaxRetriesLimit)
	}
	return nil
}

func summarize(attempts []orchestrator.Attempt) []AttemptSummary {
	out := make([]AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		s := AttemptSummary{Index: a.Index, Text: a.Text, IsHuman: a.Verdict}
		for _, f := range a.Failures {
			s.Failures = append(s.Failures, fmt.Sprintf("%s: %v", f.Stage, f.Err))
		}
		out = append(out, s)
	}
	return out
}

func (h *Handler) toRun(req Request, resp *Response) *store.Run {
	run := &store.Run{
		SourceText:   req.Text,
		FinalText:    resp.FinalText,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		MaxRetries:   req.MaxRetries,
		PassedInLoop: resp.PassedInLoop,
		FinalVerdict: resp.IsHuman,
		Translator:   h.config.Translator,
		Rewriter:     h.config.Rewriter,
	}
	for _, a := range resp.Attempts {
		run.Attempts = append(run.Attempts, store.RunAttempt{
			Index:    a.Index,
			Text:     a.Text,
			Verdict:  a.IsHuman,
			Failures: a.Failures,
		})
	}
	return run
}
