package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/issue-updater/internal/credential"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker"
)

var passwordStdin bool

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the tracker password stored in the system keyring",
}

var credentialSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the password for the configured tracker account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCredential(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored password for the configured tracker account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteCredential(cmd.OutOrStdout())
	},
}

func registerCredentialCommand(root *cobra.Command) {
	root.AddCommand(credentialCmd)
	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialDeleteCmd)

	credentialSetCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from standard input")
}

// credentialKey returns the keyring entry for the configured account.
func credentialKey() (string, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return "", err
	}
	if msg := model.CheckURL(cfg.Tracker.URL); msg != "" {
		return "", fmt.Errorf("tracker.url: %s", msg)
	}
	return credential.Key(tracker.BaseURL(cfg.Tracker.URL), cfg.Tracker.Username), nil
}

func setCredential(in io.Reader, out io.Writer) error {
	key, err := credentialKey()
	if err != nil {
		return err
	}

	var secret string
	if passwordStdin {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		secret = strings.TrimRight(string(data), "\r\n")
	} else {
		if !isInteractive() {
			return errors.New("no terminal for the password prompt; use --password-stdin")
		}
		err := huh.NewInput().
			Title("Password for " + key).
			EchoMode(huh.EchoModePassword).
			Value(&secret).
			Run()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}
	if secret == "" {
		return errors.New("password is empty")
	}

	if err := credential.Set(key, secret); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Password stored as %s\n", key)
	return nil
}

func deleteCredential(out io.Writer) error {
	key, err := credentialKey()
	if err != nil {
		return err
	}
	if err := credential.Delete(key); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Removed %s\n", key)
	return nil
}
