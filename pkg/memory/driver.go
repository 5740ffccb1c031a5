// Package memory provides long-term agent memory: free-text facts stored
// durably and recalled by semantic similarity. Memory outlives any one
// session; a fact stored in one session is recallable in every later one.
package memory

import "context"

// Fact is one remembered piece of information.
type Fact struct {
	// ID is the fact's stable identity.
	ID string `json:"id"`

	// Information is the remembered text, verbatim as stored.
	Information string `json:"information"`
}

// Result is a recalled fact with its similarity to the query.
type Result struct {
	Fact

	// Score is the similarity score, higher is closer.
	Score float32 `json:"score"`
}

// Driver stores and recalls facts.
type Driver interface {
	// Store remembers a piece of information and returns the stored fact.
	Store(ctx context.Context, information string) (Fact, error)

	// Find returns up to topK stored facts most similar to the query,
	// ranked by descending similarity.
	Find(ctx context.Context, query string, topK int) ([]Result, error)

	// Close releases any resources held by the driver.
	Close() error
}
