package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "qedloop.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, "codellama:7b", cfg.Model)
	assert.Equal(t, "temp.v", cfg.Filename)
	assert.Equal(t, "coq_error.log", cfg.ErrorLog)
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, "coqc", cfg.Checker.Mode)
	assert.Equal(t, []string{"coq-lsp"}, cfg.Checker.LSP.Command)
}

func TestLoadSparseFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qedloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: mistral:7b\nmax_attempts: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mistral:7b", cfg.Model)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, "temp.v", cfg.Filename)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "qedloop.yaml")
	cfg := Default()
	cfg.Backend = "openai"
	cfg.Model = "gpt-4o-mini"
	cfg.Checker.Mode = "lsp"
	cfg.Checker.LSP.Wait = "30s"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", loaded.Backend)
	assert.Equal(t, "gpt-4o-mini", loaded.Model)
	assert.Equal(t, "lsp", loaded.Checker.Mode)
	assert.Equal(t, "30s", loaded.Checker.LSP.Wait)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qedloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "runs.db"), ExpandPath("~/runs.db", "/work"))
	assert.Equal(t, filepath.Join("/work", "runs.db"), ExpandPath("./runs.db", "/work"))
	assert.Equal(t, "/abs/runs.db", ExpandPath("/abs/runs.db", "/work"))
	assert.Equal(t, "", ExpandPath("", "/work"))
}
