package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/caselode/caselode/pkg/memory"
)

// MockMemoryDriver is a test memory driver with substring-match recall.
type MockMemoryDriver struct {
	// StoreErr, when set, is returned by every Store call.
	StoreErr error

	// FindErr, when set, is returned by every Find call.
	FindErr error

	mu    sync.Mutex
	facts []memory.Fact
}

func NewMockMemoryDriver() *MockMemoryDriver {
	return &MockMemoryDriver{}
}

func (m *MockMemoryDriver) Store(_ context.Context, information string) (memory.Fact, error) {
	if m.StoreErr != nil {
		return memory.Fact{}, m.StoreErr
	}
	if strings.TrimSpace(information) == "" {
		return memory.Fact{}, memory.ErrEmptyInformation
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	fact := memory.Fact{
		ID:          fmt.Sprintf("fact-%d", len(m.facts)),
		Information: information,
	}
	m.facts = append(m.facts, fact)
	return fact, nil
}

func (m *MockMemoryDriver) Find(_ context.Context, query string, topK int) ([]memory.Result, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if strings.TrimSpace(query) == "" {
		return nil, memory.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = 3
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var results []memory.Result
	for _, fact := range m.facts {
		if len(results) == topK {
			break
		}
		if strings.Contains(strings.ToLower(fact.Information), strings.ToLower(query)) {
			results = append(results, memory.Result{Fact: fact, Score: 0.9})
		}
	}
	return results, nil
}

func (m *MockMemoryDriver) Close() error {
	return nil
}

// Facts returns every stored fact in store order.
func (m *MockMemoryDriver) Facts() []memory.Fact {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]memory.Fact, len(m.facts))
	copy(out, m.facts)
	return out
}

var _ memory.Driver = (*MockMemoryDriver)(nil)
