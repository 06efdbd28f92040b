package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/api"
	"github.com/diogo/aichat/internal/chat"
	"github.com/diogo/aichat/internal/config"
	"github.com/diogo/aichat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, sender chat.Sender, opts tui.Options) error
	RunConfig(cfg config.Config) error
}

// SenderFactory builds the chat transport for cfg. The returned func
// releases it.
type SenderFactory func(cfg config.Config, logger *zap.Logger) (chat.Sender, func(), error)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewSender creates the /api/chat client.
	NewSender SenderFactory

	// TUI is the terminal user interface.
	TUI TUIInterface
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, sender chat.Sender, opts tui.Options) error {
	return tui.RunChat(ctx, sender, opts)
}

func (d *DefaultTUI) RunConfig(cfg config.Config) error {
	return tui.RunConfig(cfg)
}

// newAPISender is the production SenderFactory.
func newAPISender(cfg config.Config, logger *zap.Logger) (chat.Sender, func(), error) {
	client, err := api.NewClient(
		api.WithServerURL(cfg.ServerURL),
		api.WithTimeout(time.Duration(cfg.RequestTimeout)*time.Second),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewSender: newAPISender,
		TUI:       &DefaultTUI{},
	}
}

// orDefault fills the unset fields of d, which may be nil.
func (d *Dependencies) orDefault() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}
	out := *d
	if out.NewSender == nil {
		out.NewSender = def.NewSender
	}
	if out.TUI == nil {
		out.TUI = def.TUI
	}
	return &out
}
