package ingest

import (
	"fmt"

	"github.com/caselode/caselode/pkg/dataset"
	"github.com/caselode/caselode/pkg/embeddings"
)

// Point is a record prepared for upload. Its vector field carries a deferred
// embedding request rather than a numeric vector; the uploader resolves it
// against the run's embedder so write-time and query-time vectors always come
// from the same model.
type Point struct {
	// ID is the record's ordinal position in the dataset.
	ID uint64

	// Payload holds the document text and the original record.
	Payload map[string]any

	// Vector maps vector field name to the embedding request for it.
	Vector map[string]embeddings.Request
}

// BuildPoint transforms one record at the given ordinal into a point.
func BuildPoint(index uint64, record dataset.Record, model string) (Point, error) {
	text, err := DeriveDocumentText(record)
	if err != nil {
		return Point{}, fmt.Errorf("record %d: %w", index, err)
	}

	return Point{
		ID: index,
		Payload: map[string]any{
			PayloadKeyDocument: text,
			PayloadKeyMetadata: map[string]any(record),
		},
		Vector: map[string]embeddings.Request{
			VectorFieldName(model): {Text: text, Model: model},
		},
	}, nil
}

// BuildPoints transforms a full record sequence into points with dense ids
// 0..len(records)-1. A single malformed record fails the whole build; no
// partial point set is ever returned.
func BuildPoints(records []dataset.Record, model string) ([]Point, error) {
	points := make([]Point, 0, len(records))
	for i, record := range records {
		point, err := BuildPoint(uint64(i), record, model)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}
