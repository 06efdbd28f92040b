package commands

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/api"
	"github.com/diogo/aichat/internal/chat"
	"github.com/diogo/aichat/internal/config"
	"github.com/diogo/aichat/internal/models"
	"github.com/diogo/aichat/internal/tui"
)

// fakeTUI records what the commands asked the TUI to run.
type fakeTUI struct {
	chatCalls   int
	chatOpts    tui.Options
	sender      chat.Sender
	configCalls int
	configArg   config.Config
	err         error
}

func (f *fakeTUI) RunChat(ctx context.Context, sender chat.Sender, opts tui.Options) error {
	f.chatCalls++
	f.sender = sender
	f.chatOpts = opts
	return f.err
}

func (f *fakeTUI) RunConfig(cfg config.Config) error {
	f.configCalls++
	f.configArg = cfg
	return f.err
}

// testDeps wires a mock client and a fake TUI.
type testDeps struct {
	*Dependencies
	client   *api.MockClient
	tui      *fakeTUI
	released int
	cfgSeen  config.Config
}

func newTestDeps(resp *models.ChatResponse, err error) *testDeps {
	td := &testDeps{
		client: &api.MockClient{Response: resp, Err: err},
		tui:    &fakeTUI{},
	}
	td.Dependencies = &Dependencies{
		NewSender: func(cfg config.Config, _ *zap.Logger) (chat.Sender, func(), error) {
			td.cfgSeen = cfg
			return td.client, func() { td.released++ }, nil
		},
		TUI: td.tui,
	}
	return td
}

// isolateConfig points the config dir at a temp dir and resets global flags.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	t.Setenv(config.EnvServerURL, "")

	oldServer, oldVerbose := serverFlag, verboseFlag
	serverFlag, verboseFlag = "", false
	t.Cleanup(func() { serverFlag, verboseFlag = oldServer, oldVerbose })
	return dir
}
