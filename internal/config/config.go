// Package config handles the XDG configuration directory, file paths and settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the settings file name (without extension).
	ConfigFile = "config"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// GoogleClientFile is the OAuth client credentials file for Google sign-in.
	GoogleClientFile = "google_client.json"

	// EnvPrefix prefixes every environment variable read by the config.
	EnvPrefix = "TODO"

	// DefaultAPIURL is used when no api_url is configured.
	DefaultAPIURL = "http://localhost:8000"

	// DefaultTimeout is the HTTP client timeout.
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the base URL of the to-do REST API.
	APIURL string

	// Timeout bounds every HTTP request.
	Timeout time.Duration

	// Timezone is the preferred IANA zone for date display and comparisons.
	// Empty means "detect".
	Timezone string

	// Output is the default output format: text, json or yaml.
	Output string

	// SessionKey seals the session file when non-empty.
	SessionKey string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config for the default or specified config directory.
// Settings come from <dir>/config.yaml and TODO_* environment variables;
// a missing config file is not an error.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName(ConfigFile)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("timezone", "")
	v.SetDefault("output", "text")
	v.SetDefault("session_key", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("invalid config file: %w", err)
		}
	}

	cfg := &Config{
		Dir:        dir,
		APIURL:     strings.TrimRight(v.GetString("api_url"), "/"),
		Timeout:    v.GetDuration("timeout"),
		Timezone:   v.GetString("timezone"),
		Output:     strings.ToLower(v.GetString("output")),
		SessionKey: v.GetString("session_key"),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if err := ValidateOutput(cfg.Output); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateOutput checks an output format name.
func ValidateOutput(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid output format: %s", format)
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// GoogleClientPath returns the path to the Google OAuth client file.
func (c *Config) GoogleClientPath() string {
	return filepath.Join(c.Dir, GoogleClientFile)
}

// EnsureDir creates the config directory with mode 0700 if it doesn't exist.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasGoogleClient checks if the Google OAuth client file exists.
func (c *Config) HasGoogleClient() bool {
	_, err := os.Stat(c.GoogleClientPath())
	return err == nil
}
