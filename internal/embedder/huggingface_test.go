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

func newTestHF(t *testing.T, handler http.HandlerFunc) *HuggingFace {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	e, err := NewHuggingFace("test-key", "test/model")
	require.NoError(t, err)
	e.baseURL = srv.URL + "/"
	e.retry = fastRetry()
	return e
}

func TestHuggingFaceEmbed(t *testing.T) {
	e := newTestHF(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/test/model", r.URL.Path)
		json.NewEncoder(w).Encode([][]float32{{0.1, 0.2}, {0.3, 0.4}})
	})

	vectors, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vectors)
	assert.Equal(t, 2, e.Dimension())
}

func TestHuggingFaceAuthFailureNotRetried(t *testing.T) {
	calls := 0
	e := newTestHF(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

func TestHuggingFaceRequiresKey(t *testing.T) {
	_, err := NewHuggingFace("", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
