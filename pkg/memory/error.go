package memory

import "errors"

var (
	// ErrEmptyInformation indicates a store call with nothing to remember.
	ErrEmptyInformation = errors.New("information is empty")

	// ErrEmptyQuery indicates a find call with nothing to search for.
	ErrEmptyQuery = errors.New("query is empty")
)
