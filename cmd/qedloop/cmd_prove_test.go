package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/qedloop/checker"
	"github.com/lexcodex/qedloop/config"
	"github.com/lexcodex/qedloop/llm"
)

func TestBuildCheckerCoqcMode(t *testing.T) {
	cfg := config.Default()
	cfg.Checker.Args = []string{"-q"}
	cfg.Checker.Timeout = "30s"

	chk, err := buildChecker(cfg)
	require.NoError(t, err)
	coqc, ok := chk.(*checker.CoqcChecker)
	require.True(t, ok)
	require.Equal(t, "coqc", coqc.Binary)
	require.Equal(t, "temp.v", coqc.Filename)
	require.Equal(t, "coq_error.log", coqc.ErrorLog)
	require.Equal(t, []string{"-q"}, coqc.Args)
	require.Equal(t, 30*time.Second, coqc.Timeout)
}

func TestBuildCheckerLSPMode(t *testing.T) {
	cfg := config.Default()
	cfg.Checker.Mode = "lsp"
	cfg.Checker.LSP.Wait = "5s"

	chk, err := buildChecker(cfg)
	require.NoError(t, err)
	lsp, ok := chk.(*checker.LSPChecker)
	require.True(t, ok)
	require.Equal(t, []string{"coq-lsp"}, lsp.Command)
	require.Equal(t, "temp.v", lsp.Filename)
	require.Equal(t, 5*time.Second, lsp.Wait)
}

func TestBuildCheckerRejectsUnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Checker.Mode = "isabelle"
	_, err := buildChecker(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "isabelle")
}

func TestBuildCheckerRejectsBadTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Checker.Timeout = "soon"
	_, err := buildChecker(cfg)
	require.Error(t, err)
}

func TestBuildModelClientBackends(t *testing.T) {
	cfg := config.Default()
	client, err := buildModelClient(cfg)
	require.NoError(t, err)
	require.IsType(t, &llm.OllamaClient{}, client)

	cfg.Backend = "openai"
	cfg.APIKey = "test-key"
	client, err = buildModelClient(cfg)
	require.NoError(t, err)
	require.IsType(t, &llm.OpenAIClient{}, client)

	cfg.Backend = "petals"
	_, err = buildModelClient(cfg)
	require.Error(t, err)
}
