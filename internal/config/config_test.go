package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/docgen"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"DOCUMIND_PROVIDER", "DOCUMIND_MODEL", "DOCUMIND_API_KEY",
		"DOCUMIND_BASE_URL", "DOCUMIND_STYLE", "OPENAI_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Generation.Provider)
	assert.Equal(t, 90*time.Second, cfg.Timeout())
	assert.Equal(t, docgen.StyleGoogle, cfg.Style())
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Contains(t, cfg.Scan.Ignore, "__pycache__")
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "documind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generation:
  provider: openai
  model: gpt-4o-mini
  timeout: 30s
  style: numpy
scan:
  ignore: [env]
  workers: 0
output:
  format: json
`), 0o644))

	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("DOCUMIND_MODEL", "gpt-4.1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Generation.Provider)
	assert.Equal(t, "gpt-4.1", cfg.Generation.Model)
	assert.Equal(t, "sk-fallback", cfg.Generation.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, docgen.StyleNumPy, cfg.Style())
	assert.Equal(t, []string{"env"}, cfg.Scan.Ignore)
	assert.Equal(t, 1, cfg.Scan.Workers)
	assert.Equal(t, "json", cfg.Output.Format)

	opts := cfg.BackendOptions()
	assert.Equal(t, "openai", opts.Provider)
	assert.Equal(t, "sk-fallback", opts.APIKey)
}

func TestLoadConfig_ExplicitKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCUMIND_PROVIDER", "gemini")
	t.Setenv("DOCUMIND_API_KEY", "explicit")
	t.Setenv("GEMINI_API_KEY", "fallback")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Generation.Provider)
	assert.Equal(t, "explicit", cfg.Generation.APIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  timeout: soon\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid duration")
}
