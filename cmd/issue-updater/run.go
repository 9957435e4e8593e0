package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/issue-updater/internal/buildvars"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/store"
	"github.com/nhle/issue-updater/internal/ui"
	"github.com/nhle/issue-updater/internal/updater"
)

var (
	paramFlags  []string
	paramsFile  string
	historyPath string
	dryRun      bool
)

// errRunFailed is returned when the outcome policy fails the build. The
// summary has already been printed, so the message stays short.
var errRunFailed = errors.New("issue update failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Query Jira and update the matching issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd.Context(), cmd.OutOrStdout())
	},
}

func registerRunCommand(root *cobra.Command) {
	root.AddCommand(runCmd)

	runCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "Build parameter KEY=VALUE (repeatable)")
	runCmd.Flags().StringVar(&paramsFile, "params-file", "", "YAML file of build parameters")
	runCmd.Flags().StringVar(&historyPath, "history", "", "SQLite file recording run history (overrides history.db_path)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Query and resolve, but log updates instead of sending them")
}

func runUpdate(ctx context.Context, out io.Writer) error {
	logger := newLogger(out)

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if historyPath != "" {
		cfg.History.DBPath = historyPath
	}

	vars, err := buildvars.Collect(buildvars.Sources{
		Environ:    os.Environ(),
		ParamsFile: paramsFile,
		Params:     paramFlags,
	})
	if err != nil {
		return fmt.Errorf("collecting build variables: %w", err)
	}

	fmt.Fprintln(out, ui.RenderBanner(summaryWidth(), cfg.Tracker.URL, dryRun))

	report, err := executeRun(ctx, cfg, vars, dryRun, logger)
	if err != nil {
		return err
	}

	recordHistory(context.WithoutCancel(ctx), cfg.History.DBPath, report, logger)

	fmt.Fprintln(out, ui.RenderReport(summaryWidth(), report))

	if !report.Succeeded {
		return errRunFailed
	}
	return nil
}

// executeRun checks the configuration, resolves the password and runs one
// update against the configured tracker.
func executeRun(
	ctx context.Context,
	cfg *model.Config,
	vars model.Variables,
	dry bool,
	logger *slog.Logger,
) (*model.Report, error) {
	findings := cfg.Validate(false)
	for _, f := range findings {
		if f.Level == model.LevelError {
			logger.Error("configuration", "field", f.Field, "message", f.Message)
		} else {
			logger.Warn("configuration", "field", f.Field, "message", f.Message)
		}
	}
	if model.HasErrors(findings) {
		return nil, errors.New("invalid configuration")
	}

	resolvePassword(&cfg.Tracker, logger)

	connector, err := connectorFor(cfg.Tracker)
	if err != nil {
		return nil, err
	}

	opts := updater.Options{
		Policy:                updater.PolicyFromConfig(cfg.Policy),
		ResetFixedVersions:    cfg.Update.ResetFixedVersions,
		CreateMissingVersions: cfg.Update.CreateMissingVersions,
		DryRun:                dry,
	}
	endpoint := updater.Endpoint{
		URL:      cfg.Tracker.URL,
		Username: cfg.Tracker.Username,
		Password: cfg.Tracker.Password,
	}

	return updater.Execute(ctx, connector, endpoint, opts, cfg.Update.Templates, vars, logger), nil
}

// recordHistory stores the report when a history database is configured.
// Failures are logged and never fail the build.
func recordHistory(ctx context.Context, dbPath string, report *model.Report, logger *slog.Logger) {
	if dbPath == "" {
		return
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn("could not open run history", "path", dbPath, "error", err)
		return
	}
	defer s.Close()

	if err := s.RecordRun(ctx, report); err != nil {
		logger.Warn("could not record run", "path", dbPath, "error", err)
		return
	}
	logger.Debug("run recorded", "path", dbPath, "run_id", report.ID)
}
