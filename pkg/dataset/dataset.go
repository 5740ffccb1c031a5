// Package dataset provides access to the structured text corpora that
// caselode ingests. A source yields a fixed-order, fixed-length sequence of
// records; a record's 0-based position in that sequence is its ordinal
// identity for the lifetime of an ingestion run.
package dataset

import "context"

// Record is one row of a dataset: an immutable mapping of field name to
// scalar or text value, decoded from JSON.
type Record map[string]any

// String returns the named field rendered as a string. Missing fields and
// non-string values render as the empty string.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Source yields the full record sequence of a dataset.
type Source interface {
	// Load returns every record of the dataset in its stable order.
	Load(ctx context.Context) ([]Record, error)

	// Name identifies the dataset (file path or hub dataset name).
	Name() string

	// Close releases any resources held by the source.
	Close() error
}
