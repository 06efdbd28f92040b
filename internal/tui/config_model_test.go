package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/aichat/internal/config"
	"github.com/diogo/aichat/internal/render"
)

// newTestConfigModel returns a sized model whose saves are recorded.
func newTestConfigModel(t *testing.T) (ConfigModel, *[]config.Config) {
	t.Helper()
	t.Setenv(config.EnvConfigDir, t.TempDir())
	t.Cleanup(func() { ApplyTheme("tokyonight") })

	var saved []config.Config
	m := NewConfigModel(config.DefaultConfig())
	m.save = func(c config.Config) error {
		saved = append(saved, c)
		return nil
	}
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(ConfigModel), &saved
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m ConfigModel, keys ...string) (ConfigModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(key(k))
		m = updated.(ConfigModel)
	}
	return m, cmd
}

func TestNewConfigModel(t *testing.T) {
	m, _ := newTestConfigModel(t)

	if m.view != viewMain {
		t.Errorf("Expected view to be viewMain, got %v", m.view)
	}
	if m.cursor != 0 {
		t.Errorf("Expected cursor to be 0, got %d", m.cursor)
	}
	if !strings.HasSuffix(m.configPath, "config.json") {
		t.Errorf("configPath = %q", m.configPath)
	}
	if m.feedbackTimeout != 2*time.Second {
		t.Errorf("Expected feedbackTimeout to be 2s, got %v", m.feedbackTimeout)
	}
	if m.Init() != nil {
		t.Error("Init should return nil command")
	}
}

func TestConfigModel_Navigation(t *testing.T) {
	m, _ := newTestConfigModel(t)

	m, _ = send(m, "up")
	if m.cursor != menuItemCount-1 {
		t.Errorf("up from top should wrap to %d, got %d", menuItemCount-1, m.cursor)
	}

	m, _ = send(m, "down")
	if m.cursor != 0 {
		t.Errorf("down from bottom should wrap to 0, got %d", m.cursor)
	}

	m, _ = send(m, "j", "j")
	if m.cursor != 2 {
		t.Errorf("j should move down, got %d", m.cursor)
	}
}

func TestConfigModel_ToggleSaves(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		check  func(config.Config) bool
		want   string
	}{
		{"verbose", menuVerbose, func(c config.Config) bool { return c.Verbose }, "Verbose logging enabled"},
		{"clipboard", menuCopyToClipboard, func(c config.Config) bool { return c.CopyToClipboard }, "Copy to clipboard enabled"},
		{"markdown", menuMarkdown, func(c config.Config) bool { return c.Markdown.Enabled }, "Markdown rendering enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, saved := newTestConfigModel(t)
			m.cursor = tt.cursor

			m, cmd := send(m, "enter")

			if cmd == nil {
				t.Error("toggle should schedule feedback clearing")
			}
			if len(*saved) != 1 || !tt.check((*saved)[0]) {
				t.Fatalf("expected one save with the toggle applied, got %+v", *saved)
			}
			if m.feedback != tt.want {
				t.Errorf("feedback = %q, want %q", m.feedback, tt.want)
			}
		})
	}
}

func TestConfigModel_SaveError(t *testing.T) {
	m, _ := newTestConfigModel(t)
	m.save = func(config.Config) error { return errors.New("disk full") }

	m, _ = send(m, "enter")

	if !strings.Contains(m.feedback, "disk full") {
		t.Errorf("feedback = %q", m.feedback)
	}
}

func TestConfigModel_SelectMarkdownTheme(t *testing.T) {
	m, saved := newTestConfigModel(t)
	m.cursor = menuTheme

	m, _ = send(m, "enter")
	if m.view != viewThemeSelect {
		t.Fatalf("expected theme view, got %v", m.view)
	}

	m, _ = send(m, "down", "enter")

	want := render.ThemeNames()[1]
	if m.view != viewMain {
		t.Error("selection should return to the main view")
	}
	if len(*saved) != 1 || (*saved)[0].Markdown.Style != want {
		t.Errorf("expected style %q saved, got %+v", want, *saved)
	}
}

func TestConfigModel_SelectTUITheme(t *testing.T) {
	m, saved := newTestConfigModel(t)
	m.cursor = menuTUITheme

	m, _ = send(m, "enter", "down", "enter")

	want := render.TUIThemeNames()[1]
	if len(*saved) != 1 || (*saved)[0].TUITheme != want {
		t.Fatalf("expected TUI theme %q saved, got %+v", want, *saved)
	}
	if render.GetTUITheme().Name != want {
		t.Error("selected TUI theme should be applied immediately")
	}
}

func TestConfigModel_EscBacksOutThenQuits(t *testing.T) {
	m, _ := newTestConfigModel(t)
	m.cursor = menuTheme

	m, _ = send(m, "enter")
	m, cmd := send(m, "esc")
	if m.view != viewMain || cmd != nil {
		t.Error("esc in a submenu should return to the main view")
	}

	_, cmd = send(m, "esc")
	if cmd == nil {
		t.Fatal("esc in the main view should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestConfigModel_FeedbackClear(t *testing.T) {
	m, _ := newTestConfigModel(t)
	m.feedback = "Test feedback"

	updated, cmd := m.Update(feedbackClearMsg{})
	if updated.(ConfigModel).feedback != "" {
		t.Error("Feedback should be cleared")
	}
	if cmd != nil {
		t.Error("feedbackClearMsg should return nil command")
	}
}

func TestConfigModel_View(t *testing.T) {
	m, _ := newTestConfigModel(t)

	view := m.View()
	for _, want := range []string{"Configuration", "Verbose Logging", "Markdown Replies", "http://localhost:5000"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.cursor = menuTUITheme
	m, _ = send(m, "enter")
	if !strings.Contains(m.View(), "(current)") {
		t.Error("theme picker should mark the current theme")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ cursor, delta, n, want int }{
		{0, -1, 5, 4},
		{4, 1, 5, 0},
		{2, 1, 5, 3},
		{0, 1, 0, 0},
	}
	for _, tt := range tests {
		if got := wrap(tt.cursor, tt.delta, tt.n); got != tt.want {
			t.Errorf("wrap(%d, %d, %d) = %d, want %d", tt.cursor, tt.delta, tt.n, got, tt.want)
		}
	}
}
