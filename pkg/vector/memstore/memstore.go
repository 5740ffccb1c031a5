// Package memstore provides an in-process vector driver used by tests and the
// demo flow. Collections live in process memory; similarity is computed
// client-side according to the collection's configured distance metric.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/caselode/caselode/pkg/vector"
)

// collection holds one named collection's schema and points.
type collection struct {
	schema vector.Schema
	points map[string]vector.Point
	order  []string
}

// Driver implements vector.Driver using in-process data structures. It is
// always "ready": writes are visible to queries as soon as Upsert returns.
type Driver struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewDriver creates an empty in-memory vector driver.
func NewDriver() *Driver {
	return &Driver{
		collections: make(map[string]*collection),
	}
}

// CollectionExists reports whether the named collection exists.
func (d *Driver) CollectionExists(_ context.Context, name string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.collections[name]
	return ok, nil
}

// CreateCollection creates a collection with the given schema.
func (d *Driver) CreateCollection(_ context.Context, name string, schema vector.Schema) error {
	if schema.Size == 0 {
		return fmt.Errorf("%w: vector size must be positive", vector.ErrInvalidSchema)
	}
	if schema.VectorName == "" {
		return fmt.Errorf("%w: vector field name is required", vector.ErrInvalidSchema)
	}
	switch schema.Distance {
	case vector.DistanceCosine, vector.DistanceEuclid, vector.DistanceDot:
	default:
		return fmt.Errorf("%w: unsupported distance %q", vector.ErrInvalidSchema, schema.Distance)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.collections[name]; ok {
		return fmt.Errorf("collection %q already exists", name)
	}

	d.collections[name] = &collection{
		schema: schema,
		points: make(map[string]vector.Point),
	}
	return nil
}

// DeleteCollection removes a collection and all its points.
func (d *Driver) DeleteCollection(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.collections, name)
	return nil
}

// CollectionStatus reports ready for any existing collection.
func (d *Driver) CollectionStatus(_ context.Context, name string) (vector.Status, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.collections[name]; !ok {
		return vector.StatusUnknown, fmt.Errorf("%w: collection %q", vector.ErrNotFound, name)
	}
	return vector.StatusReady, nil
}

// Upsert writes points into the collection, overwriting by id.
func (d *Driver) Upsert(_ context.Context, name string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	col, ok := d.collections[name]
	if !ok {
		return fmt.Errorf("%w: collection %q", vector.ErrNotFound, name)
	}

	for _, p := range points {
		vec, ok := p.Vectors[col.schema.VectorName]
		if !ok {
			return fmt.Errorf("point %s missing vector field %q", p.ID, col.schema.VectorName)
		}
		if uint64(len(vec)) != col.schema.Size {
			return fmt.Errorf("point %s vector has %d dimensions, collection expects %d",
				p.ID, len(vec), col.schema.Size)
		}

		key := p.ID.String()
		if _, exists := col.points[key]; !exists {
			col.order = append(col.order, key)
		}
		col.points[key] = p
	}
	return nil
}

// Query scores every stored point against the query vector and returns the
// top results in descending score order.
func (d *Driver) Query(_ context.Context, name string, params vector.QueryParams) ([]vector.QueryResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	col, ok := d.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", vector.ErrNotFound, name)
	}

	field := params.Using
	if field == "" {
		field = col.schema.VectorName
	}
	if field != col.schema.VectorName {
		return nil, fmt.Errorf("unknown vector field %q (collection has %q)", field, col.schema.VectorName)
	}

	results := make([]vector.QueryResult, 0, len(col.points))
	for _, key := range col.order {
		p := col.points[key]
		results = append(results, vector.QueryResult{
			ID:      p.ID,
			Score:   score(col.schema.Distance, params.Vector, p.Vectors[field]),
			Payload: p.Payload,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of points in the collection.
func (d *Driver) Count(_ context.Context, name string) (uint64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	col, ok := d.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: collection %q", vector.ErrNotFound, name)
	}
	return uint64(len(col.points)), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// score computes the similarity of two vectors under the given metric.
// Higher is always more similar; Euclid distances are negated to preserve
// that ordering.
func score(metric vector.Distance, a, b []float32) float32 {
	switch metric {
	case vector.DistanceDot:
		return dot(a, b)
	case vector.DistanceEuclid:
		var sum float64
		for i := range a {
			diff := float64(a[i]) - float64(b[i])
			sum += diff * diff
		}
		return float32(-math.Sqrt(sum))
	default:
		na := math.Sqrt(float64(dot(a, a)))
		nb := math.Sqrt(float64(dot(b, b)))
		if na == 0 || nb == 0 {
			return 0
		}
		return float32(float64(dot(a, b)) / (na * nb))
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

var _ vector.Driver = (*Driver)(nil)
