// Package ingest implements the full-refresh pipeline that turns a dataset
// into a queryable vector collection: provisioning, record transformation,
// batched parallel upload, readiness polling and a verification probe.
package ingest

import (
	"fmt"
	"strings"

	"github.com/caselode/caselode/pkg/dataset"
)

const (
	// FieldTitle is the record field holding the case title.
	FieldTitle = "title"

	// FieldSummary is the record field holding the case summary.
	FieldSummary = "summary"

	// PayloadKeyDocument is the payload key holding the embedded text.
	PayloadKeyDocument = "document"

	// PayloadKeyMetadata is the payload key holding the original record.
	PayloadKeyMetadata = "metadata"
)

// DeriveDocumentText builds the canonical text for a record. The same
// derivation is used when embedding points and when embedding probe queries,
// so a record always round-trips to the vector it was stored under.
func DeriveDocumentText(record dataset.Record) (string, error) {
	title := strings.TrimSpace(record.String(FieldTitle))
	if title == "" {
		return "", fmt.Errorf("%w: missing %q field", ErrMalformedRecord, FieldTitle)
	}

	summary := record.String(FieldSummary)
	return title + ": " + summary, nil
}

// VectorFieldName derives the named-vector key for an embedding model. Only
// the last path segment of the model identifier is kept, lowercased, so
// "BAAI/bge-small-en-v1.5" and "bge-small-en-v1.5" name the same field.
func VectorFieldName(model string) string {
	segment := model
	if i := strings.LastIndex(model, "/"); i >= 0 {
		segment = model[i+1:]
	}
	return "fast-" + strings.ToLower(segment)
}
