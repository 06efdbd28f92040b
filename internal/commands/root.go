// Package commands provides CLI commands for aichat.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/config"
	"github.com/diogo/aichat/internal/logging"
)

var (
	// Global flags
	serverFlag  string
	verboseFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd builds the aichat command tree.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.orDefault()

	cmd := &cobra.Command{
		Use:   "aichat",
		Short: "Terminal chat client and relay for OpenAI-compatible models",
		Long: `aichat is a terminal chat window that talks to a small relay server.
The relay exposes POST /api/chat and forwards each message to an
OpenAI-compatible /chat/completions endpoint configured in .env.

Examples:
  aichat serve                          Start the relay on :5000
  aichat                                Open the chat window
  aichat send "What is Go?"             Send a single message
  aichat send -f prompt.md              Read the message from a file
  cat prompt.md | aichat send           Read the message from stdin
  aichat config set server_url http://localhost:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "aichat %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runChat(cmd.Context(), deps)
		},
	}

	cmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Relay server URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps))
	cmd.AddCommand(NewSendCmd(deps))
	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, rootCmd, os.Stderr)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// execute runs cmd and returns the process exit code. Errors are printed to
// stderr unless a failed turn already showed its own message.
func execute(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var turnErr *turnError
	if !errors.As(err, &turnErr) {
		fmt.Fprintln(stderr, formatErrorMessage(err, "Error"))
	}
	return 1
}

// loadClientConfig reads the config file and applies the global flags.
func loadClientConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if serverFlag != "" {
		if err := config.SetValue(&cfg, "server_url", serverFlag); err != nil {
			return cfg, err
		}
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newClientLogger returns the file logger for client commands. Logging is
// best effort; a broken log file never blocks chatting.
func newClientLogger(cfg config.Config) *zap.Logger {
	path, err := config.GetLogPath()
	if err != nil {
		return zap.NewNop()
	}
	logger, err := logging.NewFileLogger(path, cfg.Verbose)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
