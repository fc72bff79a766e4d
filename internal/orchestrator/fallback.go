package orchestrator

import (
	"context"
	"fmt"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
)

// Every adapter error in the pipeline is turned into a fallback value here:
//
//	translate, rewrite  -> the stage input, unchanged
//	detect              -> false
//
// A panicking adapter counts as a service failure.

func (o *Orchestrator) runText(ctx context.Context, stage Stage, fn textStage, input string, attempt int, failures *[]StageFailure) string {
	out, err := guard(string(stage), func() (string, error) { return fn(ctx, input) })
	if err != nil {
		o.fallback(stage, attempt, err, failures)
		return input
	}
	return out
}

func (o *Orchestrator) runVerdict(ctx context.Context, text string, attempt int, failures *[]StageFailure) bool {
	var verdict bool
	_, err := guard(string(StageDetect), func() (string, error) {
		var err error
		verdict, err = o.detector.IsHuman(ctx, text)
		return "", err
	})
	if err != nil {
		o.fallback(StageDetect, attempt, err, failures)
		return false
	}
	return verdict
}

func (o *Orchestrator) fallback(stage Stage, attempt int, err error, failures *[]StageFailure) {
	kind := internal.KindOf(err)
	o.logger.Warn("stage failed, using fallback",
		"stage", string(stage),
		"attempt", attempt,
		"kind", kind.String(),
		"error", err,
	)
	*failures = append(*failures, StageFailure{Stage: stage, Kind: kind, Err: err})
}

func guard(op string, fn func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = internal.Service(op, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}
