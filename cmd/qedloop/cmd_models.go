package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/qedloop/llm"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the Ollama endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := llm.NewOllamaClient(cfg.Endpoint, cfg.Model)
			client.SetDebugLogging(cfg.Debug)
			names, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
