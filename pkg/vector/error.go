package vector

import "errors"

var (
	// ErrNotFound is returned when a collection or point is not found in the
	// vector store.
	ErrNotFound = errors.New("not found")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrInvalidSchema is returned when the store rejects a collection schema.
	ErrInvalidSchema = errors.New("invalid collection schema")
)
