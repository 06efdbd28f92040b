package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/api"
	"github.com/diogo/aichat/internal/config"
	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/models"
)

const (
	// maxUpstreamBody caps how much of a completion body is read.
	maxUpstreamBody = 8 << 20
	// errorSnippetLen is how many characters of a non-JSON error body are kept.
	errorSnippetLen = 200
)

// errNotJSON marks a 200 completion whose body could not be decoded.
var errNotJSON = errors.New("upstream response is not valid JSON")

// Completer produces a reply for a single user message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

// Upstream calls an OpenAI-compatible /chat/completions endpoint.
type Upstream struct {
	httpClient  api.HTTPDoer
	url         string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// UpstreamOption configures an Upstream.
type UpstreamOption func(*Upstream)

// WithUpstreamHTTPClient replaces the tls-client transport.
func WithUpstreamHTTPClient(c api.HTTPDoer) UpstreamOption {
	return func(u *Upstream) {
		u.httpClient = c
	}
}

// WithUpstreamLogger sets the logger.
func WithUpstreamLogger(l *zap.Logger) UpstreamOption {
	return func(u *Upstream) {
		if l != nil {
			u.logger = l
		}
	}
}

// NewUpstream builds an Upstream from the relay configuration.
func NewUpstream(cfg *config.ServerConfig, opts ...UpstreamOption) (*Upstream, error) {
	u := &Upstream{
		url:         cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout(),
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.httpClient == nil {
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
			tls_client.WithTimeoutSeconds(int(u.timeout/time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream HTTP client: %w", err)
		}
		u.httpClient = httpClient
	}

	return u, nil
}

// Complete sends message as a single user turn and returns the reply text.
//
// Errors:
//   - *errors.TimeoutError when the call exceeds the configured timeout
//   - *errors.NetworkError when the request could not complete
//   - *errors.APIError for a non-200 status; Message holds the upstream's
//     error text and StatusCode is to be echoed to the caller
//   - *errors.ParseError when a 200 body lacks a completion
func (u *Upstream) Complete(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	payload, err := json.Marshal(completionRequest{
		Model:       u.model,
		Messages:    []completionMessage{{Role: "user", Content: message}},
		Temperature: u.temperature,
		MaxTokens:   u.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, u.url, bytes.NewReader(payload))
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("build completion request", u.url, err)
	}
	req.Header.Set("Authorization", "Bearer "+u.apiKey)
	req.Header.Set("Content-Type", "application/json")

	u.logger.Info("calling upstream", zap.String("url", u.url), zap.String("model", u.model))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || apierrors.IsTimeoutError(err) {
			return "", apierrors.NewTimeoutError(fmt.Sprintf("upstream did not answer within %s", u.timeout))
		}
		return "", apierrors.NewNetworkErrorWithEndpoint("completion", u.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError("reading upstream response")
		}
		return "", apierrors.NewNetworkErrorWithEndpoint("read completion", u.url, err)
	}

	u.logger.Info("upstream responded", zap.Int("status", resp.StatusCode))

	if resp.StatusCode != fhttp.StatusOK {
		msg := upstreamErrorText(resp.StatusCode, body)
		u.logger.Warn("upstream error", zap.Int("status", resp.StatusCode), zap.String("error", msg))
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, api.StatusText(resp), u.url, msg, string(body))
	}

	if !gjson.ValidBytes(body) {
		return "", errNotJSON
	}

	reply, ok := extractCompletion(body)
	if !ok {
		u.logger.Warn("unknown completion shape", zap.ByteString("body", truncateBytes(body, 512)))
		return "", apierrors.NewParseError("no completion content", models.PathCompletion)
	}

	u.logger.Debug("upstream reply", zap.String("preview", truncate(reply, 50)))
	return reply, nil
}

// extractCompletion reads the reply from either the plain or the
// "data"-wrapped completion layout. A null content is not a completion.
func extractCompletion(body []byte) (string, bool) {
	results := gjson.GetManyBytes(body, models.PathCompletion, models.PathWrappedCompletion)
	for _, r := range results {
		if r.Exists() && r.Type != gjson.Null {
			return r.String(), true
		}
	}
	return "", false
}

// upstreamErrorText picks the most specific error text from a non-200 body.
func upstreamErrorText(status int, body []byte) string {
	parsed := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !parsed.IsObject() {
		return "HTTP " + strconv.Itoa(status) + ": " + truncate(string(body), errorSnippetLen)
	}

	errField := parsed.Get(models.PathUpstreamError)
	switch {
	case errField.IsObject():
		if text := parsed.Get(models.PathUpstreamErrorText); text.Exists() {
			return text.String()
		}
		return models.RelayUpstreamFailed
	case errField.Type == gjson.String:
		return errField.Str
	}

	if msg := parsed.Get(models.PathUpstreamMessage); msg.Exists() {
		return msg.String()
	}
	return "HTTP " + strconv.Itoa(status)
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func truncateBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
