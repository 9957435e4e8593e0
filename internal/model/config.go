package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variables that override
// configuration keys (e.g., ISSUE_UPDATER_TRACKER_PASSWORD).
const EnvPrefix = "ISSUE_UPDATER"

// Transport names accepted by tracker.transport.
const (
	TransportREST = "rest"
	TransportSOAP = "soap"
)

// TrackerConfig holds the connection settings for the issue tracker.
type TrackerConfig struct {
	// URL is the root URL of the tracker (e.g., https://jira.example.com).
	URL string `mapstructure:"url" yaml:"url"`

	// Transport selects the wire protocol: "rest" or "soap".
	Transport string `mapstructure:"transport" yaml:"transport"`

	Username string `mapstructure:"username" yaml:"username"`

	// Password is the account password or API token. When empty it is
	// looked up in the system keyring.
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// TimeoutSec bounds each HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// UpdateConfig holds the update templates and fixed-version behaviour.
type UpdateConfig struct {
	Templates `mapstructure:",squash" yaml:",inline"`

	// ResetFixedVersions replaces the issue's fixed versions instead of
	// merging the configured ones into them.
	ResetFixedVersions bool `mapstructure:"reset_fixed_versions" yaml:"reset_fixed_versions"`

	// CreateMissingVersions creates configured versions that do not exist
	// in the issue's project.
	CreateMissingVersions bool `mapstructure:"create_missing_versions" yaml:"create_missing_versions"`
}

// PolicyConfig decides which run-level failures fail the build.
type PolicyConfig struct {
	FailOnConnectionError bool `mapstructure:"fail_on_connection_error" yaml:"fail_on_connection_error"`
	FailOnQueryError      bool `mapstructure:"fail_on_query_error" yaml:"fail_on_query_error"`
	FailOnEmptyResult     bool `mapstructure:"fail_on_empty_result" yaml:"fail_on_empty_result"`
}

// HistoryConfig controls the local run history database.
type HistoryConfig struct {
	// DBPath is the SQLite file recording past runs. Empty disables history.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// Config is the top-level build step configuration.
type Config struct {
	Tracker TrackerConfig `mapstructure:"tracker" yaml:"tracker"`
	Update  UpdateConfig  `mapstructure:"update" yaml:"update"`
	Policy  PolicyConfig  `mapstructure:"policy" yaml:"policy"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/issue-updater/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "issue-updater.yaml")
	}
	return filepath.Join(home, ".config", "issue-updater", "config.yaml")
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Transport:  TransportREST,
			TimeoutSec: 30,
		},
		Policy: PolicyConfig{
			FailOnConnectionError: true,
		},
	}
}

// configDefaults lists every key so that environment overrides resolve
// even when the key is absent from the file.
var configDefaults = map[string]interface{}{
	"tracker.url":                     "",
	"tracker.transport":               TransportREST,
	"tracker.username":                "",
	"tracker.password":                "",
	"tracker.timeout_sec":             30,
	"update.query":                    "",
	"update.transition":               "",
	"update.comment":                  "",
	"update.comment_file":             "",
	"update.custom_field_id":          "",
	"update.custom_field_value":       "",
	"update.fixed_versions":           "",
	"update.reset_fixed_versions":     false,
	"update.create_missing_versions":  false,
	"policy.fail_on_connection_error": true,
	"policy.fail_on_query_error":      false,
	"policy.fail_on_empty_result":     false,
	"history.db_path":                 "",
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// applying ISSUE_UPDATER_* environment overrides. If the file does not
// exist, defaults plus environment overrides are returned.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Tracker.Transport = strings.ToLower(strings.TrimSpace(cfg.Tracker.Transport))
	if cfg.Tracker.Transport == "" {
		cfg.Tracker.Transport = TransportREST
	}
	if cfg.Tracker.TimeoutSec <= 0 {
		cfg.Tracker.TimeoutSec = 30
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. The password is never written.
func SaveConfig(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	tracker := cfg.Tracker
	tracker.Password = ""

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("tracker", tracker)
	v.Set("update", cfg.Update)
	v.Set("policy", cfg.Policy)
	v.Set("history", cfg.History)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
