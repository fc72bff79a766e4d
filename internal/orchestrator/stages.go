package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/rewriter"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/translator"
)

type Stage string

const (
	StageForward  Stage = "translate_forward"
	StageBack     Stage = "translate_back"
	StageLanguage Stage = "language_check"
	StageHumanize Stage = "humanize"
	StageDetect   Stage = "detect"
	StagePolish   Stage = "grammar"
)

// textStage maps the previous text to the next one.
type textStage func(ctx context.Context, text string) (string, error)

func (o *Orchestrator) translateStage(src, tgt string) textStage {
	return func(ctx context.Context, text string) (string, error) {
		res, err := o.translator.Translate(ctx, o.config.Service, translator.TranslateRequest{
			Text:       text,
			SourceLang: src,
			TargetLang: tgt,
		})
		if err != nil {
			return "", err
		}
		op := o.translator.Name() + ".translate"
		if res == nil {
			return "", internal.Malformed(op, errors.New("no result returned"))
		}
		if res.Error != "" {
			return "", internal.Service(op, errors.New(res.Error))
		}
		return res.TranslatedText, nil
	}
}

func (o *Orchestrator) directiveStage(d rewriter.Directive) textStage {
	return func(ctx context.Context, text string) (string, error) {
		return o.rewriter.Rewrite(ctx, text, d)
	}
}

// roundTrip translates text to the target language and back. Each leg
// falls back on its own, so a failed back leg leaves the forward
// translation in place unless the language check catches it.
func (o *Orchestrator) roundTrip(ctx context.Context, text string, req Request, attempt *Attempt, result *Result) string {
	if req.TargetLang == "" {
		return text
	}

	forward := o.runText(ctx, StageForward, o.translateStage(req.SourceLang, req.TargetLang), text, attempt.Index, &attempt.Failures)
	result.Calls++
	back := o.runText(ctx, StageBack, o.translateStage(req.TargetLang, req.SourceLang), forward, attempt.Index, &attempt.Failures)
	result.Calls++

	if o.langCheck == nil || back == text {
		return back
	}
	if ok, err := o.langCheck.Matches(back, req.SourceLang); !ok {
		if err == nil {
			err = fmt.Errorf("back-translation is not in %s", req.SourceLang)
		}
		o.fallback(StageLanguage, attempt.Index, internal.Malformed(string(StageLanguage), err), &attempt.Failures)
		return text
	}
	return back
}

func (o *Orchestrator) rewriteStage(ctx context.Context, stage Stage, d rewriter.Directive, text string, attempt int, failures *[]StageFailure, result *Result) string {
	result.Calls++
	return o.runText(ctx, stage, o.directiveStage(d), text, attempt, failures)
}

func (o *Orchestrator) detectStage(ctx context.Context, text string, attempt int, failures *[]StageFailure, result *Result) bool {
	result.Calls++
	return o.runVerdict(ctx, text, attempt, failures)
}
