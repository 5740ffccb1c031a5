package nop

import (
	"context"

	"github.com/caselode/caselode/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishIngest validates input and otherwise does nothing.
func (p *Publisher) PublishIngest(_ context.Context, event *eventstream.IngestEvent) error {
	if event == nil {
		return eventstream.ErrNilIngestEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
