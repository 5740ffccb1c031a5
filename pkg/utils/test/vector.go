package testutils

import (
	"context"
	"sync"

	"github.com/caselode/caselode/pkg/vector"
	"github.com/caselode/caselode/pkg/vector/memstore"
)

// MockVectorDriver is a test vector driver. It delegates real behavior to an
// in-process memstore while recording calls and allowing failure injection.
type MockVectorDriver struct {
	store *memstore.Driver

	// UpsertErr, when set, is returned by every Upsert call.
	UpsertErr error

	// StatusSequence, when non-empty, is consumed one entry per
	// CollectionStatus call; the final entry repeats once exhausted.
	StatusSequence []vector.Status

	// QueryResults, when set, is returned by Query instead of delegating.
	QueryResults []vector.QueryResult

	mu            sync.Mutex
	upsertBatches [][]vector.Point
	statusCalls   int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		store: memstore.NewDriver(),
	}
}

func (m *MockVectorDriver) CollectionExists(ctx context.Context, name string) (bool, error) {
	return m.store.CollectionExists(ctx, name)
}

func (m *MockVectorDriver) CreateCollection(ctx context.Context, name string, schema vector.Schema) error {
	return m.store.CreateCollection(ctx, name, schema)
}

func (m *MockVectorDriver) DeleteCollection(ctx context.Context, name string) error {
	return m.store.DeleteCollection(ctx, name)
}

func (m *MockVectorDriver) CollectionStatus(ctx context.Context, name string) (vector.Status, error) {
	m.mu.Lock()
	seq := m.StatusSequence
	call := m.statusCalls
	m.statusCalls++
	m.mu.Unlock()

	if len(seq) > 0 {
		if call >= len(seq) {
			call = len(seq) - 1
		}
		return seq[call], nil
	}
	return m.store.CollectionStatus(ctx, name)
}

func (m *MockVectorDriver) Upsert(ctx context.Context, name string, points []vector.Point) error {
	m.mu.Lock()
	batch := make([]vector.Point, len(points))
	copy(batch, points)
	m.upsertBatches = append(m.upsertBatches, batch)
	err := m.UpsertErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.store.Upsert(ctx, name, points)
}

func (m *MockVectorDriver) Query(ctx context.Context, name string, params vector.QueryParams) ([]vector.QueryResult, error) {
	if m.QueryResults != nil {
		limit := params.Limit
		if limit <= 0 || limit > len(m.QueryResults) {
			limit = len(m.QueryResults)
		}
		return m.QueryResults[:limit], nil
	}
	return m.store.Query(ctx, name, params)
}

func (m *MockVectorDriver) Count(ctx context.Context, name string) (uint64, error) {
	return m.store.Count(ctx, name)
}

func (m *MockVectorDriver) Close() error {
	return m.store.Close()
}

// UpsertBatches returns a copy of every batch passed to Upsert, in call order.
func (m *MockVectorDriver) UpsertBatches() [][]vector.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]vector.Point, len(m.upsertBatches))
	copy(out, m.upsertBatches)
	return out
}

// StatusCalls returns how many times CollectionStatus was invoked.
func (m *MockVectorDriver) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

var _ vector.Driver = (*MockVectorDriver)(nil)
