package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/chat"
	"github.com/diogo/aichat/internal/models"
	"github.com/diogo/aichat/internal/render"
)

const (
	inputMinHeight = 1
	inputMaxHeight = 5
	inputCharLimit = 4000
)

// outcomeMsg carries a finished exchange back to the update loop.
type outcomeMsg struct {
	outcome chat.Outcome
}

// Options configures the chat window.
type Options struct {
	ServerURL string
	Markdown  bool
	Render    render.Options
	Logger    *zap.Logger
}

// inputControls adapts the textarea to chat.Controls. It is held by pointer
// so the controller and every copy of Model share one input.
type inputControls struct {
	ta      textarea.Model
	enabled bool
}

func (c *inputControls) Clear() {
	c.ta.Reset()
	c.ta.SetHeight(inputMinHeight)
}

func (c *inputControls) SetEnabled(enabled bool) {
	c.enabled = enabled
	if !enabled {
		c.ta.Blur()
	}
}

func (c *inputControls) Focus() {
	c.ta.Focus()
}

// Model represents the TUI state
type Model struct {
	ctx  context.Context
	ctl  *chat.Controller
	in   *inputControls
	opts Options

	viewport viewport.Model
	spinner  spinner.Model

	ready    bool
	revision uint64
	width    int
	height   int
}

func newTextarea() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "输入你的消息..."
	ta.CharLimit = inputCharLimit
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.SetHeight(inputMinHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
	return ta
}

// NewChatModel creates a chat window whose turns go through sender.
func NewChatModel(ctx context.Context, sender chat.Sender, opts Options, ctlOpts ...chat.Option) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	in := &inputControls{ta: newTextarea(), enabled: true}

	ctlOpts = append(ctlOpts, chat.WithControls(in), chat.WithLogger(opts.Logger))
	ctl := chat.NewController(sender, ctlOpts...)

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		ctx:     ctx,
		ctl:     ctl,
		in:      in,
		opts:    opts,
		spinner: s,
	}
}

// Controller exposes the turn controller driving this window.
func (m Model) Controller() *chat.Controller {
	return m.ctl
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// exchange runs the turn's request off the update loop.
func (m Model) exchange(turn *chat.Turn) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return outcomeMsg{outcome: turn.Exchange(ctx)}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if !m.in.enabled {
				return m, nil
			}
			turn, ok := m.ctl.Submit(m.in.ta.Value())
			if !ok {
				return m, nil
			}
			m.refresh()
			return m, tea.Batch(m.exchange(turn), m.spinner.Tick)

		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.in.enabled {
			m.in.ta, cmd = m.in.ta.Update(msg)
			cmds = append(cmds, cmd)
			m.fitInput()
		}
		return m, tea.Batch(cmds...)

	case outcomeMsg:
		if _, kind := m.ctl.Resolve(msg.outcome); kind == chat.OutcomeDropped {
			return m, nil
		}
		m.refresh()
		return m, textarea.Blink

	case spinner.TickMsg:
		if m.ctl.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			m.renderTranscript()
			return m, cmd
		}
		return m, nil
	}

	// Mouse wheel and other messages scroll the transcript.
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// fitInput grows the input with its content, up to inputMaxHeight lines.
func (m *Model) fitInput() {
	h := m.in.ta.LineCount()
	if h < inputMinHeight {
		h = inputMinHeight
	}
	if h > inputMaxHeight {
		h = inputMaxHeight
	}
	if h != m.in.ta.Height() {
		m.in.ta.SetHeight(h)
		m.resize()
	}
}

// resize lays out the viewport around the header, input and status bar.
func (m *Model) resize() {
	if m.width == 0 {
		return
	}

	headerHeight := 3
	inputHeight := m.in.ta.Height() + 3 // border + label row
	statusHeight := 1

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - 2
	if vpHeight < 3 {
		vpHeight = 3
	}
	contentWidth := m.contentWidth()

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.in.ta.SetWidth(contentWidth - 2)
	m.renderTranscript()
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// refresh redraws the transcript when it changed and honours scroll requests.
func (m *Model) refresh() {
	tr := m.ctl.Transcript()
	if tr.Revision() != m.revision {
		m.revision = tr.Revision()
		m.renderTranscript()
	}
	if tr.TakeScroll() && m.ready {
		m.viewport.GotoBottom()
	}
}

// renderTranscript rebuilds the viewport content from the transcript.
func (m *Model) renderTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()

	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var content strings.Builder
	for i, e := range m.ctl.Transcript().Entries() {
		if i > 0 {
			content.WriteString("\n")
		}
		switch e.Kind {
		case chat.EntryLoading:
			content.WriteString(aiLabelStyle.Render("✦ " + models.SenderAI.Label()))
			content.WriteString("\n")
			content.WriteString(m.spinner.View() + " " + loadingStyle.Render(models.TextLoadingIndicator))
		case chat.EntryMessage:
			content.WriteString(m.renderMessage(e.Message, bubbleWidth))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// renderMessage draws one transcript message with its label and timestamp.
func (m Model) renderMessage(msg models.Message, width int) string {
	if msg.Sender == models.SenderUser {
		label := userLabelStyle.Render("● "+msg.Sender.Label()) + timeStyle.Render("  "+msg.Timestamp)
		bubble := userBubbleStyle.Width(width).Render(render.Literal(msg.Text))
		return label + "\n" + bubble
	}

	label := aiLabelStyle.Render("✦ "+msg.Sender.Label()) + timeStyle.Render("  "+msg.Timestamp)
	if msg.IsError {
		return label + "\n" + errorBubbleStyle.Width(width).Render(render.Literal(msg.Text))
	}
	body := render.Reply(msg.Text, m.opts.Markdown, m.opts.Render.WithWidth(width-4))
	return label + "\n" + aiBubbleStyle.Width(width).Render(body)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.contentWidth()
	var sections []string

	// Header
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ AI Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.ServerURL),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Transcript
	var messages string
	if m.ctl.Transcript().Welcome() {
		messages = m.renderWelcome()
	} else {
		messages = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.Width(contentWidth).Height(m.viewport.Height).Render(messages))

	// Input
	count := utf8.RuneCountInString(m.in.ta.Value())
	labelRow := lipgloss.JoinHorizontal(lipgloss.Top,
		inputLabelStyle.Render(models.SenderUser.Label()),
		charCountStyle.Render(fmt.Sprintf("%d/%d", count, inputCharLimit)),
	)
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, labelRow, m.in.ta.View()),
	))

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome panel shown before the first message.
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 2
	content := lipgloss.JoinVertical(lipgloss.Center,
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		titleStyle.Width(width).Align(lipgloss.Center).Render(models.TextWelcomeTitle),
		welcomeStyle.Width(width).Render(models.TextWelcomeSubtitle),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Alt+Enter", "Newline"},
		{"PgUp/PgDn", "Scroll"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	bar := strings.Join(items, statusDescStyle.Render("  │  "))
	if m.ctl.Busy() {
		bar = loadingStyle.Render("waiting for reply") + statusDescStyle.Render("  │  ") + bar
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// RunChat starts the chat TUI
func RunChat(ctx context.Context, sender chat.Sender, opts Options) error {
	m := NewChatModel(ctx, sender, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
