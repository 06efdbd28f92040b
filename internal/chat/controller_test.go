package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/aichat/internal/api"
	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/models"
)

func newTestController(mock *api.MockClient) (*Controller, *StateControls) {
	controls := NewStateControls()
	return NewController(mock, WithControls(controls), WithClock(fixedClock(14, 3))), controls
}

func TestSubmit_EmptyIsNoOp(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		mock := &api.MockClient{}
		ctl, controls := newTestController(mock)

		turn, ok := ctl.Submit(text)

		assert.False(t, ok)
		assert.Nil(t, turn)
		assert.Equal(t, 0, ctl.Transcript().Len())
		assert.True(t, ctl.Transcript().Welcome())
		assert.False(t, ctl.Busy())
		assert.True(t, controls.Enabled)
		assert.Zero(t, controls.Clears)

		_, _, sent := ctl.Send(context.Background(), text)
		assert.False(t, sent)
		assert.Zero(t, mock.Calls())
	}
}

func TestSubmit_SideEffects(t *testing.T) {
	mock := &api.MockClient{Response: &models.ChatResponse{Message: "hi"}}
	ctl, controls := newTestController(mock)

	turn, ok := ctl.Submit("  hello  ")
	require.True(t, ok)

	entries := ctl.Transcript().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, EntryMessage, entries[0].Kind)
	assert.Equal(t, models.Message{Text: "hello", Sender: models.SenderUser, Timestamp: "14:03"}, entries[0].Message)
	assert.Equal(t, EntryLoading, entries[1].Kind)
	assert.Equal(t, turn.Placeholder, entries[1].Placeholder)

	assert.Equal(t, 1, controls.Clears)
	assert.False(t, controls.Enabled)
	assert.True(t, ctl.Busy())
	assert.Same(t, turn, ctl.Pending())

	// Nothing goes out until the exchange runs.
	assert.Zero(t, mock.Calls())
}

func TestSubmit_WhileBusyIsIgnored(t *testing.T) {
	ctl, _ := newTestController(&api.MockClient{})

	_, ok := ctl.Submit("first")
	require.True(t, ok)

	_, ok = ctl.Submit("second")
	assert.False(t, ok)
	assert.Len(t, ctl.Transcript().Messages(), 1)
}

func TestSend_ExactlyOneCall(t *testing.T) {
	mock := &api.MockClient{Response: &models.ChatResponse{Message: "hi"}}
	ctl, _ := newTestController(mock)

	_, _, sent := ctl.Send(context.Background(), "hello")

	require.True(t, sent)
	assert.Equal(t, []string{"hello"}, mock.Messages())
}

func TestResolve_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		response  *models.ChatResponse
		err       error
		wantText  string
		wantError bool
		wantKind  OutcomeKind
	}{
		{
			name:     "reply",
			response: &models.ChatResponse{Message: "hi"},
			wantText: "hi",
			wantKind: OutcomeReply,
		},
		{
			name:      "application error",
			response:  &models.ChatResponse{Error: "bad"},
			wantText:  "错误: bad",
			wantError: true,
			wantKind:  OutcomeAppError,
		},
		{
			name:      "neither field",
			response:  &models.ChatResponse{},
			wantText:  "错误: 收到无效的响应",
			wantError: true,
			wantKind:  OutcomeInvalid,
		},
		{
			name:      "nil response",
			wantText:  "错误: 收到无效的响应",
			wantError: true,
			wantKind:  OutcomeInvalid,
		},
		{
			name:     "reply wins over error",
			response: &models.ChatResponse{Message: "hi", Error: "bad"},
			wantText: "hi",
			wantKind: OutcomeReply,
		},
		{
			name:      "http error with payload",
			err:       apierrors.NewAPIErrorWithBody(500, "Internal Server Error", "/api/chat", "API密钥未配置", ""),
			wantText:  "错误: API密钥未配置",
			wantError: true,
			wantKind:  OutcomeHTTPError,
		},
		{
			name:      "http error with unparsable body",
			err:       apierrors.NewAPIErrorWithBody(502, "Bad Gateway", "/api/chat", "HTTP 502: Bad Gateway", "<html>"),
			wantText:  "错误: HTTP 502: Bad Gateway",
			wantError: true,
			wantKind:  OutcomeHTTPError,
		},
		{
			name:      "http error without message",
			err:       apierrors.NewAPIErrorWithBody(400, "", "/api/chat", "", ""),
			wantText:  "错误: 请求失败",
			wantError: true,
			wantKind:  OutcomeHTTPError,
		},
		{
			name:      "network error",
			err:       apierrors.NewNetworkErrorWithEndpoint("send message", "/api/chat", errors.New("connection refused")),
			wantText:  "网络错误: connection refused。请检查后端服务器是否正在运行。",
			wantError: true,
			wantKind:  OutcomeNetworkError,
		},
		{
			name:      "closed client",
			err:       apierrors.ErrClientClosed,
			wantText:  "网络错误: client is closed。请检查后端服务器是否正在运行。",
			wantError: true,
			wantKind:  OutcomeNetworkError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &api.MockClient{Response: tt.response, Err: tt.err}
			ctl, controls := newTestController(mock)

			turn, ok := ctl.Submit("hello")
			require.True(t, ok)

			msg, kind := ctl.Resolve(turn.Exchange(context.Background()))

			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantText, msg.Text)
			assert.Equal(t, tt.wantError, msg.IsError)
			assert.Equal(t, models.SenderAI, msg.Sender)
			assert.Equal(t, "14:03", msg.Timestamp)

			// Placeholder gone, controls restored, no pending turn.
			assert.False(t, ctl.Transcript().HasLoading(turn.Placeholder))
			assert.True(t, controls.Enabled)
			assert.True(t, controls.Focused)
			assert.Equal(t, 2, controls.Toggles, "disabled once and re-enabled once")
			assert.False(t, ctl.Busy())

			msgs := ctl.Transcript().Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, msg, msgs[1])
			assert.Equal(t, 2, ctl.Transcript().Len())
		})
	}
}

func TestResolve_HTTPErrorKeepsStatus(t *testing.T) {
	// A non-success status with an unparsable body surfaces the numeric code.
	client, ctl := newRelayBackedController(t, 503, "503 Service Unavailable", "down")

	msg, kind, sent := ctl.Send(context.Background(), "hello")

	require.True(t, sent)
	assert.Equal(t, OutcomeHTTPError, kind)
	assert.Contains(t, msg.Text, "503")
	assert.True(t, msg.IsError)
	client.Close()
}

func TestResolve_StaleOutcomeIsDropped(t *testing.T) {
	mock := &api.MockClient{Response: &models.ChatResponse{Message: "hi"}}
	ctl, controls := newTestController(mock)

	turn, _ := ctl.Submit("hello")
	stale := &Turn{Text: "other"}

	msg, kind := ctl.Resolve(Outcome{Turn: stale, Response: &models.ChatResponse{Message: "late"}})

	assert.Equal(t, OutcomeDropped, kind)
	assert.Empty(t, msg.Text)
	assert.True(t, ctl.Busy())
	assert.False(t, controls.Enabled)
	assert.True(t, ctl.Transcript().HasLoading(turn.Placeholder))

	ctl.Resolve(turn.Exchange(context.Background()))
	assert.False(t, ctl.Busy())

	// Resolving the same turn twice changes nothing.
	before := ctl.Transcript().Len()
	_, kind = ctl.Resolve(Outcome{Turn: turn, Response: &models.ChatResponse{Message: "dup"}})
	assert.Equal(t, OutcomeDropped, kind)
	assert.Equal(t, before, ctl.Transcript().Len())
}

func TestSend_ConsecutiveTurns(t *testing.T) {
	replies := []string{"one", "two"}
	mock := &api.MockClient{
		SendFunc: func(ctx context.Context, message string) (*models.ChatResponse, error) {
			r := replies[0]
			replies = replies[1:]
			return &models.ChatResponse{Message: r}, nil
		},
	}
	ctl, _ := newTestController(mock)

	_, _, ok1 := ctl.Send(context.Background(), "a")
	_, _, ok2 := ctl.Send(context.Background(), "b")
	require.True(t, ok1)
	require.True(t, ok2)

	var texts []string
	for _, m := range ctl.Transcript().Messages() {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"a", "one", "b", "two"}, texts)
	assert.Equal(t, 4, ctl.Transcript().Len())
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "reply", OutcomeReply.String())
	assert.Equal(t, "network_error", OutcomeNetworkError.String())
	assert.Equal(t, "dropped", OutcomeDropped.String())
	assert.Equal(t, "unknown", OutcomeKind(42).String())
}

// statusDoer answers every request with a fixed status and body.
type statusDoer struct {
	status     int
	statusLine string
	body       string
}

func (d statusDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	return &fhttp.Response{
		StatusCode: d.status,
		Status:     d.statusLine,
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Header:     make(fhttp.Header),
	}, nil
}

func newRelayBackedController(t *testing.T, status int, statusLine, body string) (*api.Client, *Controller) {
	t.Helper()
	client, err := api.NewClient(api.WithHTTPClient(statusDoer{status: status, statusLine: statusLine, body: body}))
	require.NoError(t, err)
	return client, NewController(client, WithClock(fixedClock(0, 0)))
}
