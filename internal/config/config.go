// Package config loads tool configuration from ~/.cortex/config.yaml with
// environment and flag overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable. Credentials are deliberately absent: API keys
// are read from the environment by the embedder factory, never persisted.
type Config struct {
	RedisURL     string `yaml:"redis_url"`
	StoreBackend string `yaml:"store_backend"` // redis | badger | memory
	BadgerPath   string `yaml:"badger_path"`

	VectorBackend string `yaml:"vector_backend"` // kv | sqlite
	SQLitePath    string `yaml:"sqlite_path"`

	Provider  string `yaml:"provider"` // ollama | openai | huggingface
	Model     string `yaml:"model"`
	OllamaURL string `yaml:"ollama_url"`

	BatchSize int    `yaml:"batch_size"`
	TopK      int    `yaml:"top_k"`
	Workers   int    `yaml:"workers"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		RedisURL:      "redis://localhost:6379",
		StoreBackend:  "redis",
		VectorBackend: "kv",
		Provider:      "ollama",
		OllamaURL:     "http://localhost:11434",
		BatchSize:     32,
		TopK:          10,
		Workers:       4,
		LogLevel:      "info",
	}
}

// Path returns the config file location, ~/.cortex/config.yaml.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cortex", "config.yaml"), nil
}

// Load reads the config file if present, then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load() (Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return cfg, err
	}
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("CORTEX_STORE"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("CORTEX_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("CORTEX_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CORTEX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CORTEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
}
