package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/issue-updater/internal/model"
)

var (
	configPath  string
	debugMode   bool
	outputWidth int
)

var rootCmd = &cobra.Command{
	Use:   "issue-updater",
	Short: "Update Jira issues from a CI build step",
	Long: "issue-updater finds Jira issues with a JQL query and applies a workflow action, " +
		"a comment, a custom field value and fixed versions to each of them. " +
		"$NAME placeholders in the configured strings are replaced with build variables.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&outputWidth, "width", 0, "Width of printed summaries (0 = terminal width)")

	registerRunCommand(rootCmd)
	registerValidateCommand(rootCmd)
	registerInitCommand(rootCmd)
	registerCredentialCommand(rootCmd)
	registerHistoryCommand(rootCmd)
}

// newLogger returns the text logger writing to the build log.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// defaultWidth is used when stdout is not a terminal, as in most CI logs.
const defaultWidth = 100

// summaryWidth returns --width, else the terminal width, else defaultWidth.
func summaryWidth() int {
	if outputWidth > 0 {
		return outputWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
