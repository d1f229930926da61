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

// Ollama calls the Ollama /api/embed endpoint. Dimension is learned from the
// first successful response since Ollama models don't advertise it up front.
type Ollama struct {
	baseURL   string
	model     string
	client    *http.Client
	retry     RetryConfig
	dimension int
}

// NewOllama creates an embedder targeting the given Ollama instance.
func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		retry:   DefaultRetryConfig(),
	}
}

func (e *Ollama) Provider() string { return "ollama" }
func (e *Ollama) Model() string    { return e.model }
func (e *Ollama) Dimension() int   { return e.dimension }

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends a batch of texts to Ollama and returns their embeddings in
// input order.
func (e *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
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

func (e *Ollama) embedOnce(ctx context.Context, body []byte) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: ollama", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama embed returned %d: %s",
			ErrProviderUnavailable, resp.StatusCode, string(respBody))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode embed response: %v", ErrProviderUnavailable, err)
	}
	return result.Embeddings, nil
}
