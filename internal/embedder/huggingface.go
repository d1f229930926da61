package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultHFModel   = "sentence-transformers/all-MiniLM-L6-v2"
	hfInferenceBase  = "https://api-inference.huggingface.co/pipeline/feature-extraction/"
	hfRequestTimeout = 120 * time.Second
)

// HuggingFace embeds through the HuggingFace inference API's
// feature-extraction pipeline.
type HuggingFace struct {
	apiKey    string
	model     string
	baseURL   string
	client    *http.Client
	retry     RetryConfig
	dimension int
}

// NewHuggingFace creates a HuggingFace embedder. An empty model selects the
// default sentence-transformers model.
func NewHuggingFace(apiKey, model string) (*HuggingFace, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: HF_API_KEY is not set", ErrInvalidInput)
	}
	if model == "" {
		model = defaultHFModel
	}
	return &HuggingFace{
		apiKey:  apiKey,
		model:   model,
		baseURL: hfInferenceBase,
		client:  &http.Client{Timeout: hfRequestTimeout},
		retry:   DefaultRetryConfig(),
	}, nil
}

func (e *HuggingFace) Provider() string { return "huggingface" }
func (e *HuggingFace) Model() string    { return e.model }
func (e *HuggingFace) Dimension() int   { return e.dimension }

type hfRequest struct {
	Inputs  []string        `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// Embed generates one vector per text, in input order.
func (e *HuggingFace) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	body, err := json.Marshal(hfRequest{
		Inputs:  texts,
		Options: map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	vectors, err := withRetry(ctx, e.retry, func() ([][]float32, error) {
		return e.embedOnce(ctx, body)
	})
	if err != nil {
		return nil, err
	}
	if err := checkCount(texts, vectors); err != nil {
		return nil, err
	}
	if e.dimension == 0 && len(vectors) > 0 {
		e.dimension = len(vectors[0])
	}
	return vectors, nil
}

func (e *HuggingFace) embedOnce(ctx context.Context, body []byte) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+e.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: huggingface: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: huggingface", ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: huggingface auth failed: %s", ErrInvalidInput, string(respBody))
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: huggingface returned %d: %s",
			ErrProviderUnavailable, resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("%w: decode embed response: %v", ErrProviderUnavailable, err)
	}
	return vectors, nil
}
