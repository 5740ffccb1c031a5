package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeIngestStarted is emitted when an ingestion run begins,
	// before the collection is provisioned.
	EventTypeIngestStarted = "caselode.ingest.started"

	// EventTypeBatchUploaded is emitted after each point batch is written
	// to the vector store.
	EventTypeBatchUploaded = "caselode.batch.uploaded"

	// EventTypeIngestCompleted is emitted after the verification probe
	// passes and the collection is queryable.
	EventTypeIngestCompleted = "caselode.ingest.completed"
)

// IngestEvent is a transport-neutral event payload for ingestion progress.
type IngestEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Collection    string    `json:"collection"`
	Dataset       string    `json:"dataset,omitempty"`
	BatchIndex    *int      `json:"batch_index,omitempty"`
	BatchSize     int       `json:"batch_size,omitempty"`
	PointCount    int       `json:"point_count,omitempty"`
}

// NewIngestEvent creates an event of the given type with identity and
// timestamp filled in.
func NewIngestEvent(eventType, collection string) *IngestEvent {
	return &IngestEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Collection:    collection,
	}
}
