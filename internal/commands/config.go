package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/aichat/internal/config"
	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/render"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	deps = deps.orDefault()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Open configuration menu",
		Long: `Interactive menu to configure aichat settings.

Without a terminal the current settings are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if isStdoutTTY() && term.IsTerminal(int(os.Stdin.Fd())) {
				return deps.TUI.RunConfig(cfg)
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change a single setting",
		Long:      "Change a single setting. Keys: server_url, request_timeout, verbose,\ncopy_to_clipboard, tui_theme, markdown, markdown_style.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.SettableKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.OutOrStdout(), args[0], args[1])
		},
	})

	return cmd
}

func setConfigValue(out io.Writer, key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := config.SetValue(&cfg, key, value); err != nil {
		return err
	}
	if key == "tui_theme" {
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return apierrors.NewConfigError(key, fmt.Sprintf("unknown TUI theme %q (valid: %s)", value, strings.Join(render.TUIThemeNames(), ", ")))
		}
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintln(out, stylesFor(cfg).success.Render(fmt.Sprintf("✓ %s = %s", key, value)))
	return nil
}

func printConfig(out io.Writer, cfg config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(out, string(data))

	if path, err := config.GetConfigPath(); err == nil {
		fmt.Fprintln(out, stylesFor(cfg).dim.Render("# "+path))
	}
	return nil
}
