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
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"golang.org/x/sync/errgroup"
)

const (
	// WarmupSource identifies warmup events from the scheduler.
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for the
	// self-invocations to land on other instances.
	WarmupDelay = 75 * time.Millisecond

	maxWarmupConcurrency = 50
)

type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// invoker fires count asynchronous warmup invocations of this function.
type invoker func(ctx context.Context, count int) error

// IsWarmupEvent reports whether event is a warmup ping rather than a
// humanize request.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var warmup WarmupEvent
	if err := json.Unmarshal(event, &warmup); err != nil {
		return nil, false
	}
	if warmup.Source != WarmupSource {
		return nil, false
	}
	warmup.Concurrency = max(0, min(warmup.Concurrency, maxWarmupConcurrency))
	return &warmup, true
}

func HandleWarmup(ctx context.Context, warmup *WarmupEvent, invoke invoker) (*WarmupResponse, error) {
	instancesWarmed := 1

	if warmup.Concurrency > 0 {
		if err := invoke(ctx, warmup.Concurrency); err == nil {
			instancesWarmed += warmup.Concurrency
		}
	}

	time.Sleep(WarmupDelay)

	return &WarmupResponse{Status: "warm", InstancesWarmed: instancesWarmed}, nil
}

// invokeSelf asynchronously invokes this function count times.
func invokeSelf(ctx context.Context, count int) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	client := lambdasdk.NewFromConfig(cfg)
	functionName := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")

	// Children get concurrency 0 so they do not fan out again.
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			_, err := client.Invoke(gctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			return err
		})
	}
	return g.Wait()
}
