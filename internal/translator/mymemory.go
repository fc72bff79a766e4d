package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/chunker"
)

const (
	defaultMyMemoryURL = "https://api.mymemory.translated.net/get"

	// The API rejects q longer than 500 bytes; longer texts go out in pieces.
	myMemoryMaxQueryBytes = 480
)

// MyMemoryService calls the free MyMemory API. It needs no credentials; a
// contact email raises the daily quota. Long texts are sent piece by piece
// and the reported confidence is the lowest match among the pieces.
type MyMemoryService struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(email, baseURL string, timeout time.Duration) *MyMemoryService {
	if baseURL == "" {
		baseURL = defaultMyMemoryURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MyMemoryService{
		email:   email,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

func (s *MyMemoryService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	const op = "mymemory.translate"

	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "en"
	}
	langpair := fmt.Sprintf("%s|%s", sourceLang, req.TargetLang)

	pieces := chunker.Split(req.Text, myMemoryMaxQueryBytes)
	texts := make([]string, len(pieces))
	confidence := 1.0
	for i, p := range pieces {
		if strings.TrimSpace(p.Text) == "" {
			texts[i] = p.Text
			continue
		}
		translated, match, err := s.query(ctx, op, p.Text, langpair)
		if err != nil {
			return fail(result, err)
		}
		texts[i] = translated
		confidence = min(confidence, match)
	}

	result.TranslatedText = chunker.Join(pieces, texts)
	result.Confidence = max(0, confidence)
	if len(pieces) > 1 {
		result.Metadata = map[string]string{"chunks": strconv.Itoa(len(pieces))}
	}

	return result, nil
}

// query translates a single piece that fits within the API's size cap.
func (s *MyMemoryService) query(ctx context.Context, op, text, langpair string) (string, float64, error) {
	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", langpair)
	if s.email != "" {
		query.Set("de", s.email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", 0, internal.Malformed(op, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", 0, internal.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, internal.Service(op, fmt.Errorf("API returned status %d", resp.StatusCode))
	}

	// responseStatus is a number on success and occasionally a string on errors.
	var mymemResp struct {
		ResponseData struct {
			TranslatedText string  `json:"translatedText"`
			Match          float64 `json:"match"`
		} `json:"responseData"`
		ResponseStatus  json.Number `json:"responseStatus"`
		ResponseDetails string      `json:"responseDetails"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&mymemResp); err != nil {
		return "", 0, internal.Malformed(op, fmt.Errorf("failed to decode response: %w", err))
	}

	if mymemResp.ResponseStatus.String() != "200" {
		return "", 0, internal.Service(op, fmt.Errorf("API error: %s (%s)", mymemResp.ResponseDetails, mymemResp.ResponseStatus))
	}

	if mymemResp.ResponseData.TranslatedText == "" {
		return "", 0, internal.Malformed(op, fmt.Errorf("empty translation returned"))
	}

	return mymemResp.ResponseData.TranslatedText, min(mymemResp.ResponseData.Match, 1), nil
}

func (s *MyMemoryService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *MyMemoryService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{
		"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh",
		"ar", "nl", "pl", "tr", "sv", "da", "no", "fi", "el", "he",
		"th", "vi", "id", "ms", "cs", "hu", "ro", "uk", "bg", "ca",
	}, nil
}
