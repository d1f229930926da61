// Package cmd wires the cortex CLI verbs.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cortex/internal/config"
	"cortex/internal/embedder"
	"cortex/internal/entity"
	"cortex/internal/extract"
	"cortex/internal/index"
	"cortex/internal/store"
	"cortex/internal/vector"
)

var (
	flagStore      string
	flagRedisURL   string
	flagBadgerPath string
	flagProvider   string
	flagModel      string
	flagOllama     string
	flagVector     string
	flagSQLitePath string
	flagWorkers    int
	flagDescribe   bool
	flagJSON       bool
	flagLogLevel   string
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Structural code memory for Python projects",
	Long: `cortex extracts functions, classes, methods, and module variables from
Python source trees, persists them in a key-value store, and answers both
structural and semantic queries over them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		applyFlags(cmd)
		setupLogging()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagStore, "store", "", "store backend: redis, badger, or memory")
	pf.StringVar(&flagRedisURL, "redis-url", "", "redis connection URL")
	pf.StringVar(&flagBadgerPath, "badger-path", "", "badger database directory")
	pf.StringVar(&flagProvider, "provider", "", "embedding provider: ollama, openai, or huggingface")
	pf.StringVar(&flagModel, "model", "", "embedding model name")
	pf.StringVar(&flagOllama, "ollama", "", "ollama base URL")
	pf.StringVar(&flagVector, "vector", "", "vector backend: kv or sqlite")
	pf.StringVar(&flagSQLitePath, "sqlite-path", "", "sqlite vector database path")
	pf.IntVar(&flagWorkers, "workers", 0, "parallel extraction workers")
	pf.BoolVar(&flagDescribe, "describe", false, "describe store mutations as JSON lines instead of applying them")
	pf.BoolVar(&flagJSON, "json", false, "machine-readable JSON output")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, or error")
}

// applyFlags layers explicit flags over file and environment config.
func applyFlags(cmd *cobra.Command) {
	if flagStore != "" {
		cfg.StoreBackend = flagStore
	}
	if flagRedisURL != "" {
		cfg.RedisURL = flagRedisURL
	}
	if flagBadgerPath != "" {
		cfg.BadgerPath = flagBadgerPath
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagOllama != "" {
		cfg.OllamaURL = flagOllama
	}
	if flagVector != "" {
		cfg.VectorBackend = flagVector
	}
	if flagSQLitePath != "" {
		cfg.SQLitePath = flagSQLitePath
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
}

func setupLogging() {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// openStore opens the configured backend, wrapping it in a descriptive
// recorder when --describe is set. Mutations then go to stdout as JSON
// lines and the underlying store is never written.
func openStore() (store.Client, error) {
	st, err := store.Open(store.Options{
		Backend:    cfg.StoreBackend,
		RedisURL:   cfg.RedisURL,
		BadgerPath: cfg.BadgerPath,
	})
	if err != nil {
		return nil, err
	}
	if flagDescribe {
		return store.NewRecorder(st, os.Stdout), nil
	}
	return st, nil
}

func newWriter(st store.Client) *index.Writer {
	ex := extract.New(slog.Default())
	return index.NewWriter(st, ex, cfg.Workers, slog.Default())
}

func newEmbedder() (embedder.Embedder, error) {
	return embedder.New(embedder.Options{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		OllamaURL: cfg.OllamaURL,
	})
}

// openVectorIndex selects the vector backend. The sqlite backend needs the
// embedding dimension, so the embedder must be constructed first.
func openVectorIndex(ctx context.Context, st store.Client, emb embedder.Embedder) (vector.Index, error) {
	switch cfg.VectorBackend {
	case "sqlite":
		path, err := sqlitePath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dim, err := embedderDimension(ctx, emb)
		if err != nil {
			return nil, err
		}
		return vector.OpenSQLite(path, dim)
	case "kv", "":
		return vector.NewKVIndex(st, slog.Default()), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

// embedderDimension returns the provider's embedding dimension. Providers like
// ollama and huggingface only know it after a request, so a one-text warmup
// embed is sent when needed.
func embedderDimension(ctx context.Context, emb embedder.Embedder) (int, error) {
	if dim := emb.Dimension(); dim > 0 {
		return dim, nil
	}
	if _, err := emb.Embed(ctx, []string{"cortex"}); err != nil {
		return 0, fmt.Errorf("determine embedding dimension from %s: %w", emb.Provider(), err)
	}
	dim := emb.Dimension()
	if dim <= 0 {
		return 0, fmt.Errorf("provider %s does not report a dimension; use the kv vector backend", emb.Provider())
	}
	return dim, nil
}

// sqlitePath resolves the vector database path, defaulting under ~/.cortex.
func sqlitePath() (string, error) {
	if cfg.SQLitePath != "" {
		return cfg.SQLitePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cortex", "vectors.db"), nil
}

// resolveProject turns a path argument into the absolute root and the
// project key prefix.
func resolveProject(arg string) (root, prefix string, err error) {
	root, err = filepath.Abs(arg)
	if err != nil {
		return "", "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", "", err
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("%s is not a directory", root)
	}
	return root, entity.Prefix(root), nil
}
