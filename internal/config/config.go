// Package config handles client and relay configuration for aichat.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/models"
)

// Environment overrides for the client.
const (
	EnvConfigDir = "AICHAT_HOME"
	EnvServerURL = "AICHAT_SERVER_URL"
)

// MarkdownConfig configures markdown rendering of replies
type MarkdownConfig struct {
	Enabled          bool   `json:"enabled"`           // Replies are shown literally when false
	Style            string `json:"style"`             // "dark", "light", "dracula", "notty", "ascii"
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// Config represents the client configuration
type Config struct {
	// ServerURL is the base URL of the relay that serves /api/chat.
	ServerURL string `json:"server_url"`
	// RequestTimeout is the per-request timeout in seconds. Zero waits forever.
	RequestTimeout  int            `json:"request_timeout"`
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Enabled:          false,
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:       models.DefaultServerURL,
		RequestTimeout:  0,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".aichat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path of the client log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "aichat.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if u := os.Getenv(EnvServerURL); u != "" {
		cfg.ServerURL = u
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateServerURL checks that u is an absolute http(s) URL
func ValidateServerURL(u string) error {
	parsed, err := url.Parse(u)
	if err != nil {
		return apierrors.NewConfigError("server_url", fmt.Sprintf("invalid server URL %q: %v", u, err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apierrors.NewConfigError("server_url", fmt.Sprintf("invalid server URL %q: scheme must be http or https", u))
	}
	if parsed.Host == "" {
		return apierrors.NewConfigError("server_url", fmt.Sprintf("invalid server URL %q: missing host", u))
	}
	return nil
}

// setters maps settable keys to their parsers
var setters = map[string]func(cfg *Config, value string) error{
	"server_url": func(cfg *Config, value string) error {
		value = strings.TrimRight(strings.TrimSpace(value), "/")
		if err := ValidateServerURL(value); err != nil {
			return err
		}
		cfg.ServerURL = value
		return nil
	},
	"request_timeout": func(cfg *Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("request_timeout must be a non-negative integer, got %q", value)
		}
		cfg.RequestTimeout = n
		return nil
	},
	"verbose": boolSetter(func(cfg *Config, v bool) { cfg.Verbose = v }),
	"copy_to_clipboard": boolSetter(func(cfg *Config, v bool) {
		cfg.CopyToClipboard = v
	}),
	"tui_theme": func(cfg *Config, value string) error {
		cfg.TUITheme = value
		return nil
	},
	"markdown": boolSetter(func(cfg *Config, v bool) { cfg.Markdown.Enabled = v }),
	"markdown_style": func(cfg *Config, value string) error {
		cfg.Markdown.Style = value
		return nil
	},
}

func boolSetter(apply func(cfg *Config, v bool)) func(cfg *Config, value string) error {
	return func(cfg *Config, value string) error {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", value)
		}
		apply(cfg, v)
		return nil
	}
}

// SettableKeys returns the keys accepted by SetValue, sorted
func SettableKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetValue updates a single setting by key. Failures are *errors.ConfigError.
func SetValue(cfg *Config, key, value string) error {
	set, ok := setters[key]
	if !ok {
		return apierrors.NewConfigError(key, "unknown config key (valid: "+strings.Join(SettableKeys(), ", ")+")")
	}
	if err := set(cfg, value); err != nil {
		if apierrors.IsConfigError(err) {
			return err
		}
		return apierrors.NewConfigError(key, err.Error())
	}
	return nil
}
