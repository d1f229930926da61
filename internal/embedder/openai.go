package embedder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "text-embedding-3-small"

// OpenAI embeds through the OpenAI embeddings API.
type OpenAI struct {
	client *openai.Client
	model  string
	retry  RetryConfig
}

// NewOpenAI creates an OpenAI embedder. An empty model selects the default.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrInvalidInput)
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
		retry:  DefaultRetryConfig(),
	}, nil
}

func (e *OpenAI) Provider() string { return "openai" }
func (e *OpenAI) Model() string    { return e.model }

// Dimension reports the native dimension of the configured model.
func (e *OpenAI) Dimension() int {
	switch e.model {
	case "text-embedding-3-large":
		return 3072
	default:
		return 1536
	}
}

// Embed generates one vector per text, in input order. The API may return
// results out of order, so they are reordered by index before returning.
func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	resp, err := withRetry(ctx, e.retry, func() (openai.EmbeddingResponse, error) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return openai.EmbeddingResponse{}, classifyOpenAIError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}
	if err := checkCount(texts, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: openai: %v", ErrRateLimited, err)
		case apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500:
			return fmt.Errorf("%w: openai: %v", ErrInvalidInput, err)
		}
	}
	return fmt.Errorf("%w: openai: %v", ErrProviderUnavailable, err)
}
