package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToOllama(t *testing.T) {
	e, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", e.Provider())
	assert.Equal(t, "nomic-embed-text", e.Model())
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(Options{Provider: ProviderOpenAI})
	assert.ErrorIs(t, err, ErrInvalidInput)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	e, err := New(Options{Provider: ProviderOpenAI})
	require.NoError(t, err)
	assert.Equal(t, "openai", e.Provider())
	assert.Equal(t, defaultOpenAIModel, e.Model())
	assert.Equal(t, 1536, e.Dimension())
}

func TestNewHuggingFaceFromEnv(t *testing.T) {
	t.Setenv("HF_API_KEY", "hf-test")
	e, err := New(Options{Provider: ProviderHuggingFace, Model: "custom/model"})
	require.NoError(t, err)
	assert.Equal(t, "huggingface", e.Provider())
	assert.Equal(t, "custom/model", e.Model())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Options{Provider: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
