// Package embeddings
package embeddings

import "context"

// Request is a deferred embedding instruction: a text and the model that must
// resolve it. Points carry requests rather than numeric vectors; an Embedder
// resolves them at upload and query time so that write-time and query-time
// vectors always come from the same model.
type Request struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model identifies the embedding model backing this embedder.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}
