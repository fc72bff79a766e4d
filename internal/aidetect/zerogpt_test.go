package aidetect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
)

func TestZeroGPT_Detect(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    bool
		wantPct float64
	}{
		{name: "integer one", body: `{"success":true,"data":{"isHuman":1,"fakePercentage":0}}`, want: true},
		{name: "integer zero", body: `{"success":true,"data":{"isHuman":0,"fakePercentage":87.5}}`, want: false, wantPct: 87.5},
		{name: "numeric string", body: `{"success":true,"data":{"isHuman":"1"}}`, want: true},
		{name: "zero string", body: `{"success":true,"data":{"isHuman":"0"}}`, want: false},
		{name: "boolean", body: `{"success":true,"data":{"isHuman":true}}`, want: true},
		{name: "float", body: `{"success":true,"data":{"isHuman":0.0}}`, want: false},
		{name: "fraction truncates", body: `{"success":true,"data":{"isHuman":0.5}}`, want: false},
		{name: "high fraction truncates", body: `{"success":true,"data":{"isHuman":0.9}}`, want: false},
		{name: "fractional string truncates", body: `{"success":true,"data":{"isHuman":"0.7"}}`, want: false},
		{name: "one point zero string", body: `{"success":true,"data":{"isHuman":"1.0"}}`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			report, err := NewZeroGPT(server.URL, time.Second).Detect(context.Background(), "some text")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.IsHuman != tt.want {
				t.Errorf("expected isHuman=%v, got %v", tt.want, report.IsHuman)
			}
			if report.FakePercentage != tt.wantPct {
				t.Errorf("expected fakePercentage=%v, got %v", tt.wantPct, report.FakePercentage)
			}
		})
	}
}

func TestZeroGPT_Detect_SendsInputText(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["input_text"] != "" {
			t.Errorf("expected empty input_text to be sent as-is, got %q", req["input_text"])
		}
		w.Write([]byte(`{"data":{"isHuman":0}}`))
	}))
	defer server.Close()

	human, err := NewZeroGPT(server.URL, time.Second).IsHuman(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if human {
		t.Error("expected false verdict")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestZeroGPT_Detect_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind internal.FailureKind
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "", wantKind: internal.KindService},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"message":"slow down"}`, wantKind: internal.KindService},
		{name: "not json", status: http.StatusOK, body: "<html>", wantKind: internal.KindMalformed},
		{name: "no data", status: http.StatusOK, body: `{"success":false,"message":"bad"}`, wantKind: internal.KindMalformed},
		{name: "missing flag", status: http.StatusOK, body: `{"data":{"fakePercentage":10}}`, wantKind: internal.KindMalformed},
		{name: "null flag", status: http.StatusOK, body: `{"data":{"isHuman":null}}`, wantKind: internal.KindMalformed},
		{name: "word flag", status: http.StatusOK, body: `{"data":{"isHuman":"yes"}}`, wantKind: internal.KindMalformed},
		{name: "object flag", status: http.StatusOK, body: `{"data":{"isHuman":{"v":1}}}`, wantKind: internal.KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			human, err := NewZeroGPT(server.URL, time.Second).IsHuman(context.Background(), "text")
			if human {
				t.Error("expected false on failure")
			}
			if got := internal.KindOf(err); got != tt.wantKind {
				t.Errorf("expected %v failure, got %v (%v)", tt.wantKind, got, err)
			}
		})
	}
}

func TestZeroGPT_Detect_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"data":{"isHuman":1}}`))
	}))
	defer server.Close()

	_, err := NewZeroGPT(server.URL, 20*time.Millisecond).IsHuman(context.Background(), "text")
	if got := internal.KindOf(err); got != internal.KindTransport {
		t.Errorf("expected transport failure, got %v (%v)", got, err)
	}
}

func TestNewZeroGPT_Defaults(t *testing.T) {
	z := NewZeroGPT("", 0)
	if z.url != DefaultZeroGPTURL {
		t.Errorf("expected default url, got %q", z.url)
	}
	if z.client.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", z.client.Timeout)
	}
	if z.Name() != "zerogpt" {
		t.Errorf("expected 'zerogpt', got %q", z.Name())
	}
}
