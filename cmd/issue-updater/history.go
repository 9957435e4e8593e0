package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/issue-updater/internal/crossref"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/store"
	"github.com/nhle/issue-updater/internal/ui"
)

var (
	historyIssue  string
	historyLimit  int
	historyFailed bool
	historyPrune  int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, or show the steps of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func registerHistoryCommand(root *cobra.Command) {
	root.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyPath, "history", "", "SQLite history file (overrides history.db_path)")
	historyCmd.Flags().StringVar(&historyIssue, "issue", "", "Only runs that touched issues mentioned in this text (e.g. a commit message)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "Only runs that failed the build")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Delete all but the newest N runs")
}

func openHistory() (*store.SQLiteStore, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	dbPath := cfg.History.DBPath
	if historyPath != "" {
		dbPath = historyPath
	}
	if dbPath == "" {
		return nil, errors.New("no history database: set history.db_path or --history")
	}
	return store.NewSQLiteStore(dbPath)
}

func showHistory(ctx context.Context, out io.Writer, args []string) error {

	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	if historyPrune > 0 {
		n, err := s.PruneRuns(ctx, historyPrune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Pruned %d runs\n", n)
		return nil
	}

	if len(args) == 1 {
		run, err := s.GetRunByID(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.RenderReport(summaryWidth(), run))
		return nil
	}

	filter := store.RunFilter{Limit: historyLimit}
	if historyIssue != "" {
		filter.IssueKeys = crossref.ExtractIssueKeys(historyIssue)
		if len(filter.IssueKeys) == 0 {
			return fmt.Errorf("no issue keys found in %q", historyIssue)
		}
	}
	if historyFailed {
		succeeded := false
		filter.Succeeded = &succeeded
	}

	runs, err := s.GetRuns(ctx, filter)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.RenderRunList(runs))
	return nil
}
