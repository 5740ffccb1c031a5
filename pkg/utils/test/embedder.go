package testutils

import (
	"context"
	"fmt"
	"sync"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	// Embeddings maps exact input text to the vector returned for it.
	Embeddings map[string][]float32

	// Default is returned for any text without a configured embedding.
	Default []float32

	// ModelName is reported by Model.
	ModelName string

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	mu    sync.Mutex
	calls []string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
		ModelName:  "mock-embed",
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	return m.Default, nil
}

func (m *MockEmbedder) Model() string {
	return m.ModelName
}

func (m *MockEmbedder) Close() error {
	return nil
}

// Calls returns every text passed to Embed, in call order.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
