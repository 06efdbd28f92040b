package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/diogo/aichat/internal/config"
)

// TestNewConfigCmd tests the config command constructor
func TestNewConfigCmd(t *testing.T) {
	cmd := NewConfigCmd(&Dependencies{})

	if cmd.Use != "config" {
		t.Errorf("expected Use 'config', got '%s'", cmd.Use)
	}
	if cmd.Short != "Open configuration menu" {
		t.Errorf("expected Short 'Open configuration menu', got '%s'", cmd.Short)
	}
	if cmd.RunE == nil {
		t.Error("RunE should not be nil")
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"show", "set"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}

	// nil deps fall back to the defaults
	if NewConfigCmd(nil) == nil {
		t.Fatal("NewConfigCmd(nil) returned nil")
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(config.Config) bool
	}{
		{"verbose", "true", func(c config.Config) bool { return c.Verbose }},
		{"server_url", "https://relay.example.com/", func(c config.Config) bool { return c.ServerURL == "https://relay.example.com" }},
		{"request_timeout", "45", func(c config.Config) bool { return c.RequestTimeout == 45 }},
		{"markdown", "true", func(c config.Config) bool { return c.Markdown.Enabled }},
		{"tui_theme", "nord", func(c config.Config) bool { return c.TUITheme == "nord" }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolateConfig(t)
			var out bytes.Buffer

			if err := setConfigValue(&out, tt.key, tt.value); err != nil {
				t.Fatalf("setConfigValue failed: %v", err)
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("setting %s=%s was not persisted: %+v", tt.key, tt.value, cfg)
			}
			if !strings.Contains(out.String(), tt.key+" = "+tt.value) {
				t.Errorf("unexpected confirmation %q", out.String())
			}
		})
	}
}

func TestConfigSet_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"unknown key", "model", "x", "unknown config key"},
		{"bad bool", "verbose", "maybe", "expected true or false"},
		{"bad url", "server_url", "localhost", "scheme"},
		{"negative timeout", "request_timeout", "-1", "non-negative"},
		{"unknown theme", "tui_theme", "solarized", "unknown TUI theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)

			err := setConfigValue(&bytes.Buffer{}, tt.key, tt.value)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}

			cfg, _ := config.LoadConfig()
			if cfg != config.DefaultConfig() {
				t.Error("a rejected value must not be saved")
			}
		})
	}
}

func TestConfigShow(t *testing.T) {
	isolateConfig(t)
	root := NewRootCmd(newTestDeps(nil, nil).Dependencies)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	jsonPart := out.String()[:strings.LastIndex(out.String(), "}")+1]
	var got config.Config
	if err := json.Unmarshal([]byte(jsonPart), &got); err != nil {
		t.Fatalf("output is not config JSON: %v\n%s", err, out.String())
	}
	if got != config.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", got)
	}
	if !strings.Contains(out.String(), "config.json") {
		t.Error("output should name the config file")
	}
}
