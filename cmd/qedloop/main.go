package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexcodex/qedloop/config"
)

var (
	flagConfig    string
	flagBackend   string
	flagModel     string
	flagEndpoint  string
	flagWorkspace string
	flagDebug     bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qedloop",
		Short:         "Ask a language model for Coq proofs and check them until one compiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default <workspace>/qedloop.yaml)")
	root.PersistentFlags().StringVar(&flagBackend, "backend", envOrDefault("QEDLOOP_BACKEND", ""), "Model backend: ollama or openai (default from config)")
	root.PersistentFlags().StringVar(&flagModel, "model", envOrDefault("QEDLOOP_MODEL", ""), "Model name (default from config)")
	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", envOrDefault("OLLAMA_ENDPOINT", ""), "Backend endpoint URL (default from config)")
	root.PersistentFlags().StringVar(&flagWorkspace, "workspace", ".", "Workspace root for config, journal and event logs")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log full prompts and replies")

	root.AddCommand(newProveCmd(), newHistoryCmd(), newConfigCmd(), newModelsCmd())
	return root
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// configPath resolves the config file location from the flag or the workspace.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath(flagWorkspace)
}

// loadConfig reads the config file and layers the global flag overrides on
// top. Flags beat environment variables, which beat the file, which beats
// the built-in defaults; the env fallbacks are baked into the flag defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
	}
	if flagDebug {
		cfg.Debug = true
	}
	return cfg, nil
}
