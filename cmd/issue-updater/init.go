package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/issue-updater/internal/credential"
	"github.com/nhle/issue-updater/internal/keys"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker"
	"github.com/nhle/issue-updater/internal/ui/setup"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or edit the configuration interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func registerInitCommand(root *cobra.Command) {
	root.AddCommand(initCmd)
}

func initConfig(cmd *cobra.Command) error {
	if !isInteractive() {
		return errors.New("init needs an interactive terminal; edit the configuration file instead")
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(
		setup.New(cfg, testConnection, keys.DefaultKeyMap()),
		tea.WithAltScreen(),
	).Run()
	if err != nil {
		return fmt.Errorf("running setup: %w", err)
	}

	m, ok := final.(setup.Model)
	if !ok {
		return fmt.Errorf("unexpected setup model %T", final)
	}
	cfg, storePassword, saved := m.Result()
	if !saved {
		fmt.Fprintln(cmd.OutOrStdout(), "Setup cancelled; nothing written.")
		return nil
	}

	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration written to %s\n", configPath)

	if storePassword && cfg.Tracker.Password != "" {
		key := credential.Key(tracker.BaseURL(cfg.Tracker.URL), cfg.Tracker.Username)
		if err := credential.Set(key, cfg.Tracker.Password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Password stored in keyring as %s\n", key)
	}
	return nil
}
