package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points the loader at a temp home so the real config file and
// ambient env never leak into tests.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"REDIS_URL", "CORTEX_STORE", "CORTEX_PROVIDER", "CORTEX_MODEL", "CORTEX_LOG_LEVEL", "CORTEX_WORKERS"} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolateHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, 10, cfg.TopK)
}

func TestLoadFromFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".cortex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
store_backend: badger
badger_path: /tmp/cortex-badger
provider: openai
model: text-embedding-3-small
batch_size: 64
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.StoreBackend)
	assert.Equal(t, "/tmp/cortex-badger", cfg.BadgerPath)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 64, cfg.BatchSize)
	// Unset fields keep defaults.
	assert.Equal(t, 10, cfg.TopK)
}

func TestEnvOverridesFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".cortex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("provider: ollama\nworkers: 2\n"), 0o644))

	t.Setenv("CORTEX_PROVIDER", "huggingface")
	t.Setenv("REDIS_URL", "redis://elsewhere:6379")
	t.Setenv("CORTEX_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "huggingface", cfg.Provider)
	assert.Equal(t, "redis://elsewhere:6379", cfg.RedisURL)
	assert.Equal(t, 8, cfg.Workers)
}

func TestMalformedFileIsAnError(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".cortex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("store_backend: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}
