/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
// Package main is the entry point for the humanizer Lambda function.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/app"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/config"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/handler"
)

// Humanizer handles one request. *handler.Handler implements it.
type Humanizer interface {
	Handle(ctx context.Context, req handler.Request) (*handler.Response, error)
}

func main() {
	h, err := newHandler()
	if err != nil {
		slog.Error("failed to initialise handler", "error", err)
		os.Exit(1)
	}
	lambda.Start(newEventHandler(h))
}

// newHandler builds the pipeline once per cold start. The function's
// filesystem is ephemeral, so run history is never recorded here.
func newHandler() (*handler.Handler, error) {
	cfg, err := config.Load(os.Getenv("HUMANIZER_CONFIG"))
	if err != nil {
		return nil, err
	}
	cfg.History.Enabled = false

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, _ := config.SetupLogger("", level)
	slog.SetDefault(logger)

	h, _, err := app.NewHandler(cfg, logger)
	return h, err
}

func newEventHandler(h Humanizer) func(context.Context, json.RawMessage) (interface{}, error) {
	return func(ctx context.Context, event json.RawMessage) (interface{}, error) {
		// Warmup detection must come before any other processing.
		if warmup, ok := IsWarmupEvent(event); ok {
			return HandleWarmup(ctx, warmup, invokeSelf)
		}

		var req handler.Request
		if err := json.Unmarshal(event, &req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}

		return h.Handle(ctx, req)
	}
}
