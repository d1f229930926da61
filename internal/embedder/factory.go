package embedder

import (
	"fmt"
	"os"
)

// Supported provider names.
const (
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

// Options selects and configures a provider. API keys are read from the
// environment, never from options or config files.
type Options struct {
	Provider  string
	Model     string
	OllamaURL string
}

// New builds the embedder named by opts.Provider.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case ProviderOllama, "":
		url := opts.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := opts.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllama(url, model), nil
	case ProviderOpenAI:
		return NewOpenAI(os.Getenv("OPENAI_API_KEY"), opts.Model)
	case ProviderHuggingFace:
		return NewHuggingFace(os.Getenv("HF_API_KEY"), opts.Model)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, opts.Provider)
	}
}
