package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/chat"
	"github.com/diogo/aichat/internal/config"
	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/models"
	"github.com/diogo/aichat/internal/render"
	"github.com/diogo/aichat/internal/tui"
)

// cliStyles colours command output with the configured TUI theme.
type cliStyles struct {
	theme render.TUITheme

	label       lipgloss.Style
	bubble      lipgloss.Style
	errorBubble lipgloss.Style
	timestamp   lipgloss.Style
	success     lipgloss.Style
	failure     lipgloss.Style
	dim         lipgloss.Style
}

// stylesFor builds the output styles for cfg.TUITheme, falling back to the
// active theme when the name is unknown.
func stylesFor(cfg config.Config) cliStyles {
	theme, ok := render.GetTUIThemeByName(cfg.TUITheme)
	if !ok {
		theme = render.GetTUITheme()
	}
	return newCLIStyles(theme)
}

func newCLIStyles(theme render.TUITheme) cliStyles {
	return cliStyles{
		theme: theme,
		label: lipgloss.NewStyle().
			Foreground(theme.AI).
			Bold(true),
		bubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.AI).
			Foreground(theme.Text).
			Padding(0, 1).
			MarginBottom(1),
		errorBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Error).
			Foreground(theme.Error).
			Padding(0, 1).
			MarginBottom(1),
		timestamp: lipgloss.NewStyle().Foreground(theme.TextDim),
		success:   lipgloss.NewStyle().Foreground(theme.AI),
		failure:   lipgloss.NewStyle().Foreground(theme.Error),
		dim:       lipgloss.NewStyle().Foreground(theme.TextDim),
	}
}

// gradient returns the spinner colours.
func (s cliStyles) gradient() []lipgloss.Color {
	return []lipgloss.Color{s.theme.Primary, s.theme.Accent, s.theme.User, s.theme.AI, s.theme.Warning}
}

// sendFlags holds the flags of the send command.
type sendFlags struct {
	file   string
	output string
	raw    bool
	copy   bool
}

// turnError reports a turn that ended in an error message. The message has
// already been shown to the user.
type turnError struct {
	kind chat.OutcomeKind
	text string
}

func (e *turnError) Error() string {
	return fmt.Sprintf("turn ended with %s: %s", e.kind, e.text)
}

// NewSendCmd creates the one-shot send command.
func NewSendCmd(deps *Dependencies) *cobra.Command {
	deps = deps.orDefault()
	flags := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a single message and print the reply",
		Long: `Send one message to the relay and print the reply.

The message is taken from --file, the argument, or stdin, in that order.
When stdout is not a terminal, or with --raw, only the reply text is printed.
The exit status is 1 when the turn ends in an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, flags.file, cmd.InOrStdin(), stdinIsPipe())
			if err != nil {
				return err
			}
			raw := flags.raw || !isStdoutTTY()
			return runSend(cmd.Context(), deps, text, flags, raw, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read message from file")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Save reply to file")
	cmd.Flags().BoolVarP(&flags.raw, "raw", "r", false, "Print only the reply text")
	cmd.Flags().BoolVarP(&flags.copy, "copy", "c", false, "Copy the reply to the clipboard")

	return cmd
}

// readInput resolves the message from a file, the argument, or stdin.
func readInput(args []string, file string, stdin io.Reader, hasStdin bool) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return args[0], nil
	case hasStdin:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return "", apierrors.ErrEmptyMessage
}

// runSend runs one turn through the chat controller and prints the reply.
func runSend(ctx context.Context, deps *Dependencies, text string, flags *sendFlags, raw bool, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(text) == "" {
		return apierrors.ErrEmptyMessage
	}

	cfg, err := loadClientConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newClientLogger(cfg)
	defer func() { _ = logger.Sync() }()

	sender, release, err := deps.NewSender(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer release()

	ctl := chat.NewController(sender,
		chat.WithControls(chat.NewStateControls()),
		chat.WithLogger(logger),
	)

	styles := stylesFor(cfg)

	var spin *spinner
	if !raw {
		spin = newSpinner(models.TextLoadingIndicator, styles, stderr)
		spin.start()
	}

	start := time.Now()
	msg, kind, _ := ctl.Send(ctx, text)
	logger.Debug("send finished", zap.Stringer("outcome", kind), zap.Duration("elapsed", time.Since(start)))

	if kind != chat.OutcomeReply {
		if raw {
			fmt.Fprintln(stderr, msg.Text)
		} else {
			spin.stopWithError()
			fmt.Fprintln(stderr, renderEntry(msg, cfg, getTerminalWidth()))
		}
		return &turnError{kind: kind, text: msg.Text}
	}
	if !raw {
		spin.stopWithSuccess("Done")
	}

	return deliver(msg, cfg, flags, raw, stdout, stderr)
}

// deliver writes a successful reply to its destinations.
func deliver(msg models.Message, cfg config.Config, flags *sendFlags, raw bool, stdout, stderr io.Writer) error {
	styles := stylesFor(cfg)

	if flags.copy || cfg.CopyToClipboard {
		if err := clipboard.WriteAll(msg.Text); err != nil {
			if !raw {
				fmt.Fprintln(stderr, styles.failure.Render(
					fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
				))
			}
		} else if !raw {
			fmt.Fprintln(stderr, styles.success.Render("✓ Copied to clipboard"))
		}
	}

	if flags.output != "" {
		if err := os.WriteFile(flags.output, []byte(msg.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !raw {
			fmt.Fprintln(stderr, styles.success.Render(
				fmt.Sprintf("✓ Reply saved to %s", flags.output),
			))
		}
		return nil
	}

	if raw {
		fmt.Fprint(stdout, msg.Text)
		if !strings.HasSuffix(msg.Text, "\n") {
			fmt.Fprintln(stdout)
		}
		return nil
	}

	fmt.Fprintln(stdout, renderEntry(msg, cfg, getTerminalWidth()))
	return nil
}

// renderEntry draws an ai transcript entry the way the chat window does.
func renderEntry(msg models.Message, cfg config.Config, termWidth int) string {
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	styles := stylesFor(cfg)
	label := styles.label.Render("✦ "+msg.Sender.Label()) + styles.timestamp.Render("  "+msg.Timestamp)

	if msg.IsError {
		return label + "\n" + styles.errorBubble.Width(bubbleWidth).Render(render.Literal(msg.Text))
	}

	opts := render.OptionsFromConfig(cfg.Markdown, contentWidth)
	body := render.Reply(msg.Text, cfg.Markdown.Enabled, opts)
	return label + "\n" + styles.bubble.Width(bubbleWidth).Render(body)
}

// spinner handles the animated loading indicator
type spinner struct {
	message string
	styles  cliStyles
	out     io.Writer
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner
func newSpinner(message string, styles cliStyles, out io.Writer) *spinner {
	return &spinner{
		message: message,
		styles:  styles,
		out:     out,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	gradient := s.styles.gradient()
	spinColor := gradient[s.frame%len(gradient)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradient[(s.frame+i)%len(gradient)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(s.styles.theme.TextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(s.styles.theme.Text).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := s.styles.success.Bold(true).Render("✓")
	msg := s.styles.success.Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// stdinIsPipe reports whether stdin is redirected from a file or pipe.
func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}
	return tui.FormatError(fmt.Errorf("%s: %w", context, err))
}
