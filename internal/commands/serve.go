package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/config"
	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/logging"
	"github.com/diogo/aichat/internal/server"
)

// NewServeCmd creates the relay server command.
func NewServeCmd(deps *Dependencies) *cobra.Command {
	var (
		addr     string
		envFiles []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the /api/chat relay server",
		Long: `Run the relay that answers POST /api/chat by forwarding the message to an
OpenAI-compatible /chat/completions endpoint.

Settings come from .env and the environment:
  AI_API_KEY, AI_API_URL, AI_MODEL      upstream credentials and model
  HOST, PORT                            listen address (default 0.0.0.0:5000)
  AI_TEMPERATURE, AI_MAX_TOKENS         completion parameters
  AI_TIMEOUT_SECONDS                    upstream timeout (default 30)
  RATE_LIMIT_PER_MINUTE                 per-client limit, 0 disables
  CORS_ORIGIN                           allowed browser origin (default *)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig(envFiles...)
			if err != nil {
				return err
			}
			if addr != "" {
				if err := applyAddr(cfg, addr); err != nil {
					return err
				}
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address host:port (overrides HOST and PORT)")
	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "Dotenv files to load instead of ./.env")

	return cmd
}

// applyAddr overrides the listen address. An empty host keeps HOST.
func applyAddr(cfg *config.ServerConfig, addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid --addr %q: bad port", addr)
	}
	if host != "" {
		cfg.Host = host
	}
	cfg.Port = port
	return nil
}

func runServe(ctx context.Context, cfg *config.ServerConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.NewConsoleLogger(verboseFlag || cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.CheckUpstream(); errors.Is(err, apierrors.ErrNotConfigured) {
		logger.Warn("relay is not fully configured; /api/chat will answer with an error", zap.Error(err))
	}

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run(ctx)
}
