package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/qedloop/checker"
	"github.com/lexcodex/qedloop/config"
	"github.com/lexcodex/qedloop/journal"
	"github.com/lexcodex/qedloop/llm"
	"github.com/lexcodex/qedloop/proof"
	"github.com/lexcodex/qedloop/telemetry"
)

func newProveCmd() *cobra.Command {
	var filename string
	var errorLog string
	var attempts int
	var checkerBinary string
	var checkerMode string
	var timeoutSecs int
	var journalPath string
	var eventsPath string
	var preambleFile string
	var watch bool
	cmd := &cobra.Command{
		Use:   "prove <task...>",
		Short: "Ask the model for a proof and retry with checker feedback until it compiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("proof task required")
			}
			task := strings.Join(args, " ")
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if filename != "" {
				cfg.Filename = filename
			}
			if errorLog != "" {
				cfg.ErrorLog = errorLog
			}
			if attempts > 0 {
				cfg.MaxAttempts = attempts
			}
			if checkerBinary != "" {
				cfg.Checker.Binary = checkerBinary
			}
			if checkerMode != "" {
				cfg.Checker.Mode = checkerMode
			}
			if timeoutSecs > 0 {
				cfg.Checker.Timeout = fmt.Sprintf("%ds", timeoutSecs)
			}
			if journalPath != "" {
				cfg.Journal = journalPath
			}
			if eventsPath != "" {
				cfg.Events = eventsPath
			}
			if preambleFile != "" {
				data, err := os.ReadFile(preambleFile)
				if err != nil {
					return fmt.Errorf("read preamble: %w", err)
				}
				cfg.Preamble = string(data)
			}

			client, err := buildModelClient(cfg)
			if err != nil {
				return err
			}
			chk, err := buildChecker(cfg)
			if err != nil {
				return err
			}

			var sinks []telemetry.Telemetry
			var channel *telemetry.ChannelTelemetry
			if watch {
				channel = telemetry.NewChannelTelemetry(64)
				sinks = append(sinks, channel)
			} else {
				sinks = append(sinks, telemetry.LoggerTelemetry{})
			}
			if cfg.Events != "" {
				events, err := telemetry.NewJSONFileTelemetry(config.ExpandPath(cfg.Events, flagWorkspace))
				if err != nil {
					return fmt.Errorf("open event log: %w", err)
				}
				defer events.Close()
				sinks = append(sinks, events)
			}
			sink := telemetry.MultiplexTelemetry{Sinks: sinks}

			var recorder journal.Recorder
			if cfg.Journal != "" {
				store, err := journal.NewSQLiteStore(config.ExpandPath(cfg.Journal, flagWorkspace))
				if err != nil {
					return fmt.Errorf("open journal: %w", err)
				}
				defer store.Close()
				recorder = store
			}

			ctrl := &proof.Controller{
				Session: proof.Session{
					Task:        task,
					Preamble:    cfg.Preamble,
					Model:       cfg.Model,
					Filename:    cfg.Filename,
					MaxAttempts: cfg.MaxAttempts,
				},
				Model:     llm.NewInstrumentedClient(client, sink, cfg.Debug),
				Checker:   chk,
				Telemetry: sink,
				Journal:   recorder,
			}

			var result proof.RunResult
			if watch {
				result, err = runProveUI(cmd, ctrl, channel)
			} else {
				result, err = ctrl.Run(cmd.Context())
			}
			if err != nil {
				return err
			}
			printResult(cmd, result)
			if result.Outcome != proof.OutcomeSuccess {
				return fmt.Errorf("proof %s after %d round(s)", result.Outcome, result.Rounds)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "Target file for extracted code (default temp.v)")
	cmd.Flags().StringVar(&errorLog, "error-log", "", "Checker error log file (default coq_error.log)")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "Maximum attempts before giving up (default 2)")
	cmd.Flags().StringVar(&checkerBinary, "checker", "", "Proof checker binary (default coqc)")
	cmd.Flags().StringVar(&checkerMode, "checker-mode", "", "Checker mode: coqc or lsp (default coqc)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "Checker timeout in seconds (0 = none)")
	cmd.Flags().StringVar(&journalPath, "journal", "", "SQLite journal path (empty = no journal)")
	cmd.Flags().StringVar(&eventsPath, "events", "", "NDJSON event log path (empty = no event log)")
	cmd.Flags().StringVar(&preambleFile, "preamble-file", "", "File overriding the built-in game preamble")
	cmd.Flags().BoolVar(&watch, "watch", false, "Watch the run in a TUI instead of log lines")
	return cmd
}

// buildModelClient constructs the configured backend client.
func buildModelClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.Backend {
	case "", "ollama":
		client := llm.NewOllamaClient(cfg.Endpoint, cfg.Model)
		client.SetDebugLogging(cfg.Debug)
		return client, nil
	case "openai":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, errors.New("openai backend needs api_key in the config or OPENAI_API_KEY set")
		}
		client := llm.NewOpenAIClient(key, cfg.Endpoint, cfg.Model)
		client.SetDebugLogging(cfg.Debug)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// buildChecker constructs the configured proof checker.
func buildChecker(cfg *config.Config) (checker.Checker, error) {
	switch cfg.Checker.Mode {
	case "", "coqc":
		chk := checker.NewCoqcChecker(cfg.Checker.Binary, cfg.Filename)
		chk.Args = cfg.Checker.Args
		chk.ErrorLog = cfg.ErrorLog
		if cfg.Checker.Timeout != "" {
			d, err := time.ParseDuration(cfg.Checker.Timeout)
			if err != nil {
				return nil, fmt.Errorf("parse checker timeout: %w", err)
			}
			chk.Timeout = d
		}
		return chk, nil
	case "lsp":
		chk := checker.NewLSPChecker(cfg.Checker.LSP.Command, cfg.Filename)
		chk.ErrorLog = cfg.ErrorLog
		chk.Debug = cfg.Debug
		if cfg.Checker.LSP.Wait != "" {
			d, err := time.ParseDuration(cfg.Checker.LSP.Wait)
			if err != nil {
				return nil, fmt.Errorf("parse lsp wait: %w", err)
			}
			chk.Wait = d
		}
		return chk, nil
	default:
		return nil, fmt.Errorf("unknown checker mode %q", cfg.Checker.Mode)
	}
}

func printResult(cmd *cobra.Command, result proof.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s after %d round(s)\n", result.RunID, result.Outcome, result.Rounds)
	if result.Diagnostic != "" {
		fmt.Fprintln(out, result.Diagnostic)
	}
	if result.Outcome == proof.OutcomeSuccess && result.Code != "" {
		fmt.Fprintf(out, "\n%s\n", result.Code)
	}
}
