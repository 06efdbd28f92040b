package api

import (
	"context"
	"sync"

	"github.com/diogo/aichat/internal/models"
)

// MockClient is a scripted stand-in for Client, used by tests of packages
// that drive chat turns.
type MockClient struct {
	Response *models.ChatResponse
	Err      error
	// SendFunc, when set, overrides Response and Err.
	SendFunc func(ctx context.Context, message string) (*models.ChatResponse, error)

	mu       sync.Mutex
	messages []string
}

// Send records message and returns the scripted result.
func (m *MockClient) Send(ctx context.Context, message string) (*models.ChatResponse, error) {
	m.mu.Lock()
	m.messages = append(m.messages, message)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, message)
	}
	return m.Response, m.Err
}

// Calls returns the number of Send calls.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Messages returns the messages passed to Send, in order.
func (m *MockClient) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}
