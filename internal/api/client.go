// Package api implements the client side of the POST /api/chat exchange.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/models"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// HTTPDoer is the subset of tls_client.HttpClient the chat client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends chat messages to a relay server.
type Client struct {
	httpClient HTTPDoer
	serverURL  string
	timeout    time.Duration
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithServerURL sets the base URL of the relay server.
func WithServerURL(serverURL string) ClientOption {
	return func(c *Client) {
		c.serverURL = strings.TrimRight(serverURL, "/")
	}
}

// WithTimeout bounds each exchange. Zero means no timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(httpClient HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. Without WithHTTPClient it uses a tls-client
// transport with a Chrome profile.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		serverURL: models.DefaultServerURL,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// ServerURL returns the relay base URL.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Endpoint returns the full chat endpoint URL.
func (c *Client) Endpoint() string {
	return c.serverURL + models.EndpointChat
}

// Close releases idle connections. Send fails after Close.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Send posts message to /api/chat and decodes the reply.
//
// A request that never completes returns *errors.NetworkError. A non-2xx
// status returns *errors.APIError whose Message is the server's error text,
// models.TextRequestFailed when the JSON body has none, or
// "HTTP <code>: <status text>" when the body is not JSON. A 2xx body that is
// not JSON yields an empty response.
func (c *Client) Send(ctx context.Context, message string) (*models.ChatResponse, error) {
	if c.IsClosed() {
		return nil, apierrors.ErrClientClosed
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("send message", endpoint, err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	c.logger.Debug("sending chat message", zap.String("endpoint", endpoint), zap.Int("length", len(message)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("chat request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, apierrors.NewNetworkErrorWithEndpoint("send message", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	statusText := StatusText(resp)
	c.logger.Debug("chat response", zap.Int("status", resp.StatusCode), zap.String("status_text", statusText))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("read response", endpoint, err)
	}

	parsed, ok := models.ParseChatResponse(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := models.TextRequestFailed
		switch {
		case !ok:
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText)
		case parsed.HasError():
			msg = parsed.Error
		}
		c.logger.Warn("chat API error", zap.Int("status", resp.StatusCode), zap.String("error", msg))
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, statusText, endpoint, msg, string(body))
	}

	if !ok {
		c.logger.Warn("chat response is not JSON", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	}

	return parsed, nil
}

// StatusText returns the reason phrase of resp, e.g. "Bad Gateway".
func StatusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
