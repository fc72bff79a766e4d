// Package rewriter restyles text with a chat model under a fixed system
// directive. The humanize pipeline uses two directives: a casual
// "write like a person" pass inside the retry loop and a grammar-only pass
// at the end.
package rewriter

import (
	"context"
	"time"
)

// Directive is a system instruction plus the sampling temperature it runs at.
// An empty Model means the backend's configured default.
type Directive struct {
	Name        string
	Instruction string
	Temperature float64
	Model       string
}

// Rewriter returns text rewritten according to d. Failures are classified
// *internal.Failure errors; callers decide on the fallback.
type Rewriter interface {
	Name() string
	Rewrite(ctx context.Context, text string, d Directive) (string, error)
}

const humanizeInstruction = `You are a human writer. Rewrite the text in natural, simple English
so it looks like a real person wrote it, not AI.

Rules:
- Use everyday words, not advanced or academic terms.
- Keep sentences short and mixed (some short, some long).
- Avoid perfect grammar, allow light imperfections.
- Keep the meaning the same but make it sound casual and human.

Extra rules:
- Break long sentences naturally
- Use simple language
- Maintain exact meaning`

var (
	Humanize = Directive{
		Name:        "humanize",
		Instruction: humanizeInstruction,
		Temperature: 1.6,
	}

	Grammar = Directive{
		Name:        "grammar",
		Instruction: "Fix grammar only. Keep the exact meaning. Do not change word choice or sentence structure.",
		Temperature: 0.8,
	}
)

// DefaultTimeout bounds one rewrite call.
const DefaultTimeout = 60 * time.Second
