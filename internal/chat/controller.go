// Package chat implements the turn lifecycle of the chat front end: one user
// submission, one exchange with /api/chat, and one rendered reply or error.
//
// A Controller is not safe for concurrent use. All methods except
// Turn.Exchange must be called from the UI loop; Exchange is the only
// blocking step and is meant to run off that loop.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/models"
)

// Sender performs the outbound /api/chat exchange.
type Sender interface {
	Send(ctx context.Context, message string) (*models.ChatResponse, error)
}

// OutcomeKind classifies how a turn ended.
type OutcomeKind int

const (
	OutcomeReply OutcomeKind = iota
	OutcomeAppError
	OutcomeInvalid
	OutcomeHTTPError
	OutcomeNetworkError
	// OutcomeDropped marks an outcome for a turn that was not pending.
	// Nothing was rendered.
	OutcomeDropped
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReply:
		return "reply"
	case OutcomeAppError:
		return "app_error"
	case OutcomeInvalid:
		return "invalid_response"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Turn is the single in-flight request of a Controller.
type Turn struct {
	Text        string
	Placeholder PlaceholderID
	Started     time.Time

	sender Sender
}

// Outcome is the result of a Turn's exchange.
type Outcome struct {
	Turn     *Turn
	Response *models.ChatResponse
	Err      error
}

// Exchange issues the one outbound request for the turn. It never panics on
// transport failure; failures are carried in the Outcome.
func (t *Turn) Exchange(ctx context.Context) Outcome {
	resp, err := t.sender.Send(ctx, t.Text)
	return Outcome{Turn: t, Response: resp, Err: err}
}

// Option configures a Controller.
type Option func(*Controller)

// WithControls sets the input surface. The default is a StateControls.
func WithControls(c Controls) Option {
	return func(ctl *Controller) {
		if c != nil {
			ctl.controls = c
		}
	}
}

// WithClock sets the clock used for message timestamps.
func WithClock(clock func() time.Time) Option {
	return func(ctl *Controller) {
		ctl.clock = clock
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(ctl *Controller) {
		if logger != nil {
			ctl.logger = logger
		}
	}
}

// Controller owns the transcript, the input controls and at most one
// pending turn.
type Controller struct {
	sender     Sender
	controls   Controls
	transcript *Transcript
	pending    *Turn
	clock      func() time.Time
	logger     *zap.Logger
}

// NewController returns a Controller that exchanges messages through sender.
func NewController(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:   sender,
		controls: NewStateControls(),
		clock:    time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transcript = NewTranscript(c.clock)
	return c
}

// Transcript returns the conversation view.
func (c *Controller) Transcript() *Transcript {
	return c.transcript
}

// Controls returns the input surface.
func (c *Controller) Controls() Controls {
	return c.controls
}

// Pending returns the in-flight turn, or nil.
func (c *Controller) Pending() *Turn {
	return c.pending
}

// Busy reports whether a turn is in flight.
func (c *Controller) Busy() bool {
	return c.pending != nil
}

// Submit starts a turn for text. Whitespace-only text, or text submitted
// while a turn is in flight, is ignored and reported with ok false.
//
// On success the user message and a loading placeholder are in the
// transcript and the controls are disabled. The caller must run
// Turn.Exchange and hand its Outcome to Resolve.
func (c *Controller) Submit(text string) (turn *Turn, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	if c.pending != nil {
		c.logger.Debug("submit ignored while a turn is pending")
		return nil, false
	}

	c.transcript.Render(text, models.SenderUser, false)
	c.controls.Clear()
	c.controls.SetEnabled(false)
	id := c.transcript.ShowLoading()

	c.pending = &Turn{
		Text:        text,
		Placeholder: id,
		Started:     c.clock(),
		sender:      c.sender,
	}
	c.logger.Info("sending message", zap.Int("length", len(text)), zap.Uint64("placeholder", uint64(id)))
	return c.pending, true
}

// Resolve renders the outcome of the pending turn and restores the controls.
// Outcomes for any other turn are dropped and reported as OutcomeDropped
// with a zero message. It returns the rendered ai message and how the turn
// ended.
func (c *Controller) Resolve(o Outcome) (models.Message, OutcomeKind) {
	if o.Turn == nil || o.Turn != c.pending {
		c.logger.Warn("dropping outcome for a turn that is not pending")
		return models.Message{}, OutcomeDropped
	}

	defer func() {
		c.pending = nil
		c.controls.SetEnabled(true)
		c.controls.Focus()
	}()

	c.transcript.RemoveLoading(o.Turn.Placeholder)

	text, kind := classify(o)
	isError := kind != OutcomeReply
	msg := c.transcript.Render(text, models.SenderAI, isError)

	fields := []zap.Field{
		zap.Stringer("outcome", kind),
		zap.Duration("elapsed", c.clock().Sub(o.Turn.Started)),
	}
	if o.Err != nil {
		fields = append(fields, zap.Error(o.Err))
	}
	if isError {
		c.logger.Warn("turn ended with error", fields...)
	} else {
		c.logger.Info("turn completed", fields...)
	}

	return msg, kind
}

// Send runs a whole turn synchronously.
func (c *Controller) Send(ctx context.Context, text string) (models.Message, OutcomeKind, bool) {
	turn, ok := c.Submit(text)
	if !ok {
		return models.Message{}, 0, false
	}
	msg, kind := c.Resolve(turn.Exchange(ctx))
	return msg, kind, true
}

// classify maps an outcome to the ai message text.
func classify(o Outcome) (string, OutcomeKind) {
	if o.Err != nil {
		var apiErr *apierrors.APIError
		if errors.As(o.Err, &apiErr) {
			detail := apiErr.Message
			if detail == "" {
				detail = models.TextRequestFailed
			}
			return models.ErrorText(detail), OutcomeHTTPError
		}

		var netErr *apierrors.NetworkError
		if errors.As(o.Err, &netErr) {
			return models.NetworkErrorText(netErr.Description()), OutcomeNetworkError
		}
		return models.NetworkErrorText(o.Err.Error()), OutcomeNetworkError
	}

	switch {
	case o.Response.HasMessage():
		return o.Response.Message, OutcomeReply
	case o.Response.HasError():
		return models.ErrorText(o.Response.Error), OutcomeAppError
	default:
		return models.ErrorText(models.TextInvalidResponse), OutcomeInvalid
	}
}
