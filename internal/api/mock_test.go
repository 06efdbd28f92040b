package api

import (
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a ReadCloser that simulates reading response data
type MockResponseBody struct {
	data   []byte
	pos    int
	closed bool
}

// NewMockResponseBody creates a new MockResponseBody with the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data, pos: 0}
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n = copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	m.closed = true
	return nil
}

// mockHTTPClient records requests and answers with doFunc.
type mockHTTPClient struct {
	doFunc   func(req *fhttp.Request) (*fhttp.Response, error)
	requests []*fhttp.Request
	bodies   [][]byte
	idle     bool
}

func (m *mockHTTPClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.requests = append(m.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		m.bodies = append(m.bodies, b)
	}
	return m.doFunc(req)
}

func (m *mockHTTPClient) CloseIdleConnections() {
	m.idle = true
}

// respondWith returns a mock answering every request with status and body.
func respondWith(status int, statusLine string, body string) *mockHTTPClient {
	return &mockHTTPClient{
		doFunc: func(req *fhttp.Request) (*fhttp.Response, error) {
			return &fhttp.Response{
				StatusCode: status,
				Status:     statusLine,
				Body:       NewMockResponseBody([]byte(body)),
				Header:     make(fhttp.Header),
			}, nil
		},
	}
}
