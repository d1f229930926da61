package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbed(t *testing.T) {
	var gotReq ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{1, 2}, {3, 4}},
		})
	}))
	defer srv.Close()

	e := NewOllama(srv.URL, "nomic-embed-text")
	vectors, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", gotReq.Model)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, vectors)
	assert.Equal(t, 2, e.Dimension(), "dimension learned from first response")
}

func TestOllamaEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	e := NewOllama(srv.URL, "m")
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestOllamaEmbedRateLimitedRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	e := NewOllama(srv.URL, "m")
	e.retry = fastRetry()

	vectors, err := e.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, [][]float32{{1}}, vectors)
}

func TestOllamaEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewOllama(srv.URL, "m")
	e.retry = fastRetry()

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestOllamaEmbedRejectsEmptyBatch(t *testing.T) {
	e := NewOllama("http://localhost:0", "m")
	_, err := e.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
