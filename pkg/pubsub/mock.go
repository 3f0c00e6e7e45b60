package pubsub

import (
	"context"
	"sync"
)

// Mock is an in-memory pubsub client for tests and development mode
type Mock struct {
	mu        sync.RWMutex
	published map[string][]Event
}

// NewMock returns a new mock pubsub client
func NewMock() *Mock {
	return &Mock{published: make(map[string][]Event)}
}

// Publish records the event
func (m *Mock) Publish(_ context.Context, topic string, payload Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = append(m.published[topic], payload)
	return nil
}

// Subscribe mock
func (m *Mock) Subscribe(_ context.Context, _ string, _ EventHandler) {}

// Published returns the events recorded for a topic
func (m *Mock) Published(topic string) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published[topic]
}
