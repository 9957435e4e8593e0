package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/schema"
	"github.com/nhle/issue-updater/internal/theme"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateConfig(cmd.OutOrStdout())
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)
}

func validateConfig(out io.Writer) error {
	fmt.Fprintf(out, "□ Validating %s...\n", configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.ValidateConfig(data); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Schema is valid")

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	findings := cfg.Validate(false)
	for _, f := range findings {
		result := model.ResultSkipped
		if f.Level == model.LevelError {
			result = model.ResultFailed
		}
		fmt.Fprintf(out, "  %s %s\n", theme.ResultStyle(string(result)).Render(string(f.Level)), f.Field+": "+f.Message)
	}
	if model.HasErrors(findings) {
		return errors.New("configuration has errors")
	}

	fmt.Fprintln(out, "✓ All validation passed")
	return nil
}
