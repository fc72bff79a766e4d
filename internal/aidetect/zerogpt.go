// Package aidetect asks an external classifier whether text reads as
// written by a person.
package aidetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
)

const (
	DefaultZeroGPTURL = "https://api.zerogpt.com/api/detect/detectText"
	DefaultTimeout    = 15 * time.Second
)

type Detector interface {
	Name() string
	IsHuman(ctx context.Context, text string) (bool, error)
}

// Report is the part of a classifier verdict the pipeline cares about.
type Report struct {
	IsHuman        bool    `json:"is_human"`
	FakePercentage float64 `json:"fake_percentage"`
}

type ZeroGPT struct {
	url    string
	client *http.Client
}

func NewZeroGPT(url string, timeout time.Duration) *ZeroGPT {
	if url == "" {
		url = DefaultZeroGPTURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ZeroGPT{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (z *ZeroGPT) Name() string {
	return "zerogpt"
}

func (z *ZeroGPT) IsHuman(ctx context.Context, text string) (bool, error) {
	report, err := z.Detect(ctx, text)
	if err != nil {
		return false, err
	}
	return report.IsHuman, nil
}

type zeroGPTResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		IsHuman        json.RawMessage `json:"isHuman"`
		FakePercentage json.Number     `json:"fakePercentage"`
	} `json:"data"`
}

func (z *ZeroGPT) Detect(ctx context.Context, text string) (*Report, error) {
	const op = "zerogpt.detect"

	body, err := json.Marshal(map[string]string{"input_text": text})
	if err != nil {
		return nil, internal.Malformed(op, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.url, bytes.NewReader(body))
	if err != nil {
		return nil, internal.Malformed(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := z.client.Do(req)
	if err != nil {
		return nil, internal.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, internal.Service(op, fmt.Errorf("detector returned status %d", resp.StatusCode))
	}

	var zr zeroGPTResponse
	if err := json.NewDecoder(resp.Body).Decode(&zr); err != nil {
		return nil, internal.Malformed(op, fmt.Errorf("failed to decode response: %w", err))
	}
	if zr.Data == nil {
		return nil, internal.Malformed(op, fmt.Errorf("response has no data (message %q)", zr.Message))
	}

	isHuman, err := coerceFlag(zr.Data.IsHuman)
	if err != nil {
		return nil, internal.Malformed(op, fmt.Errorf("isHuman: %w", err))
	}

	report := &Report{IsHuman: isHuman}
	if zr.Data.FakePercentage != "" {
		if pct, err := zr.Data.FakePercentage.Float64(); err == nil {
			report.FakePercentage = pct
		}
	}
	return report, nil
}

// coerceFlag reads a flag that the service has been seen to send as a
// number, a numeric string or a boolean. Non-zero numbers are true.
// truncatedFlag drops the fraction first, so 0.5 reads as not human.
func truncatedFlag(f float64) bool {
	return int64(f) != 0
}

func coerceFlag(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, fmt.Errorf("missing")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return false, err
	}

	switch val := v.(type) {
	case bool:
		return val, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return false, err
		}
		return truncatedFlag(f), nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return false, fmt.Errorf("not numeric: %q", val)
		}
		return truncatedFlag(f), nil
	default:
		return false, fmt.Errorf("unexpected type %T", v)
	}
}
