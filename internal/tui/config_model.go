package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/aichat/internal/config"
	"github.com/diogo/aichat/internal/render"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewThemeSelect    // Markdown theme
	viewTUIThemeSelect // TUI color theme
)

// Menu item indices for main view
const (
	menuVerbose = iota
	menuCopyToClipboard
	menuMarkdown
	menuTheme    // Markdown theme
	menuTUITheme // TUI color theme
	menuExit
	menuItemCount
)

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel is the interactive editor for the client config file.
type ConfigModel struct {
	config     config.Config
	configPath string
	logPath    string

	view           configView
	cursor         int
	themeCursor    int
	tuiThemeCursor int

	feedback        string
	feedbackTimeout time.Duration

	// save persists changes; swapped in tests.
	save func(config.Config) error

	width  int
	height int
	ready  bool
}

// NewConfigModel creates a config editor for cfg.
func NewConfigModel(cfg config.Config) ConfigModel {
	configPath, _ := config.GetConfigPath()
	logPath, _ := config.GetLogPath()

	if cfg.Markdown.Style == "" {
		cfg.Markdown.Style = render.ThemeDark
	}
	if cfg.TUITheme == "" {
		cfg.TUITheme = render.TokyoNightTheme.Name
	}
	ApplyTheme(cfg.TUITheme)

	return ConfigModel{
		config:          cfg,
		configPath:      configPath,
		logPath:         logPath,
		view:            viewMain,
		themeCursor:     indexOf(render.ThemeNames(), cfg.Markdown.Style),
		tuiThemeCursor:  indexOf(render.TUIThemeNames(), cfg.TUITheme),
		feedbackTimeout: 2 * time.Second,
		save:            config.SaveConfig,
	}
}

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return 0
}

// Config returns the edited configuration.
func (m ConfigModel) Config() config.Config {
	return m.config
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// clearFeedback returns a command that clears the feedback message after a delay
func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// wrap moves cursor by delta within [0, n).
func wrap(cursor, delta, n int) int {
	if n == 0 {
		return 0
	}
	return ((cursor+delta)%n + n) % n
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.view != viewMain {
				m.view = viewMain
			} else {
				return m, tea.Quit
			}

		case "up", "k":
			m.move(-1)

		case "down", "j":
			m.move(1)

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

func (m *ConfigModel) move(delta int) {
	switch m.view {
	case viewMain:
		m.cursor = wrap(m.cursor, delta, menuItemCount)
	case viewThemeSelect:
		m.themeCursor = wrap(m.themeCursor, delta, len(render.ThemeNames()))
	case viewTUIThemeSelect:
		m.tuiThemeCursor = wrap(m.tuiThemeCursor, delta, len(render.TUIThemeNames()))
	}
}

// persist saves the config and sets the feedback line.
func (m ConfigModel) persist(feedback string) (tea.Model, tea.Cmd) {
	if err := m.save(m.config); err != nil {
		m.feedback = fmt.Sprintf("Error: %v", err)
	} else {
		m.feedback = feedback
	}
	return m, clearFeedback(m.feedbackTimeout)
}

func toggled(name string, on bool) string {
	if on {
		return name + " enabled"
	}
	return name + " disabled"
}

// handleSelect handles menu item selection
func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewMain:
		switch m.cursor {
		case menuVerbose:
			m.config.Verbose = !m.config.Verbose
			return m.persist(toggled("Verbose logging", m.config.Verbose))

		case menuCopyToClipboard:
			m.config.CopyToClipboard = !m.config.CopyToClipboard
			return m.persist(toggled("Copy to clipboard", m.config.CopyToClipboard))

		case menuMarkdown:
			m.config.Markdown.Enabled = !m.config.Markdown.Enabled
			return m.persist(toggled("Markdown rendering", m.config.Markdown.Enabled))

		case menuTheme:
			m.view = viewThemeSelect

		case menuTUITheme:
			m.view = viewTUIThemeSelect

		case menuExit:
			return m, tea.Quit
		}

	case viewThemeSelect:
		m.config.Markdown.Style = render.ThemeNames()[m.themeCursor]
		m.view = viewMain
		return m.persist("Markdown theme set to " + m.config.Markdown.Style)

	case viewTUIThemeSelect:
		selected := render.TUIThemeNames()[m.tuiThemeCursor]
		m.config.TUITheme = selected
		ApplyTheme(selected)
		m.view = viewMain
		return m.persist("TUI theme set to " + selected)
	}

	return m, nil
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, configHeaderStyle.Width(contentWidth).Render(configTitleStyle.Render("✦ Configuration")))

	paths := lipgloss.JoinVertical(lipgloss.Left,
		configSectionTitleStyle.Render("Paths"),
		fmt.Sprintf("   Config: %s", configPathStyle.Render(m.configPath)),
		fmt.Sprintf("   Log:    %s", configPathStyle.Render(m.logPath)),
		fmt.Sprintf("   Server: %s", configValueStyle.Render(m.config.ServerURL)),
	)
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(paths))

	var settings string
	switch m.view {
	case viewMain:
		settings = m.renderMainMenu()
	case viewThemeSelect:
		settings = m.renderChoices("Select Markdown Theme", render.AvailableThemes(), m.themeCursor, m.config.Markdown.Style)
	case viewTUIThemeSelect:
		var themes []render.ThemeInfo
		for _, t := range render.AvailableTUIThemes() {
			themes = append(themes, render.ThemeInfo{Name: t.Name, Description: t.Description})
		}
		settings = m.renderChoices("Select TUI Theme", themes, m.tuiThemeCursor, m.config.TUITheme)
	}
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(settings))

	if m.feedback != "" {
		sections = append(sections, configFeedbackStyle.Render("✓ "+m.feedback))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// menuLine renders one selectable row.
func menuLine(selected bool, label, value string) string {
	cursor := "  "
	style := configMenuItemStyle
	if selected {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	line := cursor + style.Width(22).Render(label)
	if value != "" {
		line += value
	}
	return line
}

// renderMainMenu renders the main settings menu
func (m ConfigModel) renderMainMenu() string {
	rows := []struct {
		label string
		value string
	}{
		menuVerbose:         {"Verbose Logging", m.renderBoolValue(m.config.Verbose)},
		menuCopyToClipboard: {"Copy to Clipboard", m.renderBoolValue(m.config.CopyToClipboard)},
		menuMarkdown:        {"Markdown Replies", m.renderBoolValue(m.config.Markdown.Enabled)},
		menuTheme:           {"Markdown Theme", configValueStyle.Render(m.config.Markdown.Style)},
		menuTUITheme:        {"TUI Theme", configValueStyle.Render(m.config.TUITheme)},
		menuExit:            {"Exit", ""},
	}

	items := []string{configSectionTitleStyle.Render("Settings"), ""}
	for i, row := range rows {
		if i == menuExit {
			items = append(items, "")
		}
		items = append(items, menuLine(m.cursor == i, row.label, row.value))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderChoices renders a theme picker.
func (m ConfigModel) renderChoices(title string, themes []render.ThemeInfo, cursor int, current string) string {
	items := []string{configSectionTitleStyle.Render(title), ""}
	for i, theme := range themes {
		mark := ""
		if theme.Name == current {
			mark = configStatusOkStyle.Render(" (current)")
		}
		items = append(items, menuLine(cursor == i, theme.Name, configValueStyle.Render(theme.Description)+mark))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderBoolValue renders a boolean value with appropriate styling
func (m ConfigModel) renderBoolValue(value bool) string {
	if value {
		return configEnabledStyle.Render("enabled")
	}
	return configDisabledStyle.Render("disabled")
}

// renderStatusBar renders the bottom status bar
func (m ConfigModel) renderStatusBar(width int) string {
	back := "Exit"
	if m.view != viewMain {
		back = "Back"
	}

	bar := statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate") +
		statusDescStyle.Render("  │  ") +
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Select") +
		statusDescStyle.Render("  │  ") +
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" "+back)

	return configStatusBarStyle.Width(width).Render(bar)
}

// RunConfig starts the config TUI
func RunConfig(cfg config.Config) error {
	p := tea.NewProgram(
		NewConfigModel(cfg),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
