package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/qedloop/config"
	"github.com/lexcodex/qedloop/journal"
)

func newHistoryCmd() *cobra.Command {
	var journalPath string

	openStore := func() (*journal.SQLiteStore, error) {
		path := journalPath
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			path = cfg.Journal
		}
		if path == "" {
			return nil, errors.New("no journal configured; pass --journal or set journal in qedloop.yaml")
		}
		return journal.NewSQLiteStore(config.ExpandPath(path, flagWorkspace))
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled proof runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\t%s\n",
					run.ID, run.Outcome, run.Rounds, run.StartedAt.Format(time.RFC3339), run.Task)
			}
			return nil
		},
	}
	historyCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "SQLite journal path (default from config)")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its attempts as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("run id required")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			attempts, err := store.AttemptsForRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Run      journal.Run       `json:"run"`
				Attempts []journal.Attempt `json:"attempts"`
			}{run, attempts})
		},
	}

	historyCmd.AddCommand(showCmd)
	return historyCmd
}
