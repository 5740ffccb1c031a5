package testutils

import (
	"context"
	"sync"

	"github.com/caselode/caselode/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that records every event.
type MockPublisher struct {
	// FailPublish causes PublishIngest to return an error.
	FailPublish error

	mu     sync.Mutex
	events []*eventstream.IngestEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishIngest(_ context.Context, event *eventstream.IngestEvent) error {
	if event == nil {
		return eventstream.ErrNilIngestEvent
	}
	if m.FailPublish != nil {
		return m.FailPublish
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Events returns every published event in call order.
func (m *MockPublisher) Events() []*eventstream.IngestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*eventstream.IngestEvent, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns published events matching the given type.
func (m *MockPublisher) EventsOfType(eventType string) []*eventstream.IngestEvent {
	var out []*eventstream.IngestEvent
	for _, e := range m.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ eventstream.Publisher = (*MockPublisher)(nil)
