// Package embedder turns entity text into embedding vectors through one of
// several providers behind a single batch interface.
package embedder

import (
	"context"
	"errors"
	"fmt"
)

// Provider failure classes. Callers branch on these to decide whether a
// failed batch is retryable.
var (
	ErrRateLimited         = errors.New("embedding provider rate limited")
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	ErrInvalidInput        = errors.New("invalid embedding input")
)

// Embedder generates embeddings for batches of text. Implementations must
// return one vector per input text, in input order, or an error.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Provider() string
	Model() string
	Dimension() int
}

// validateBatch rejects empty batches and empty texts before any network
// round-trip.
func validateBatch(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	for i, t := range texts {
		if t == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// checkCount verifies the provider returned one vector per input.
func checkCount(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: expected %d embeddings, got %d",
			ErrProviderUnavailable, len(texts), len(vectors))
	}
	return nil
}
