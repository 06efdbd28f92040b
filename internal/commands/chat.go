package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/render"
	"github.com/diogo/aichat/internal/tui"
)

// NewChatCmd creates the interactive chat command.
func NewChatCmd(deps *Dependencies) *cobra.Command {
	deps = deps.orDefault()

	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Open the chat window. Each message is sent to the relay's /api/chat
endpoint and the reply is appended to the transcript.

Enter sends, Alt+Enter inserts a newline, Ctrl+C or Esc quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps)
		},
	}
}

func runChat(ctx context.Context, deps *Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadClientConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newClientLogger(cfg)
	defer func() { _ = logger.Sync() }()

	tui.ApplyTheme(cfg.TUITheme)

	sender, release, err := deps.NewSender(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer release()

	logger.Info("chat session started", zap.String("server", cfg.ServerURL), zap.Bool("markdown", cfg.Markdown.Enabled))

	return deps.TUI.RunChat(ctx, sender, tui.Options{
		ServerURL: cfg.ServerURL,
		Markdown:  cfg.Markdown.Enabled,
		Render:    render.OptionsFromConfig(cfg.Markdown, 0),
		Logger:    logger,
	})
}
