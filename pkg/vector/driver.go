// Package vector provides interfaces and implementations for collection-based
// vector storage and similarity search.
package vector

import (
	"context"
	"fmt"
	"strings"
)

// Distance is the similarity metric a collection is created with. It is fixed
// at creation time and never altered in place.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceEuclid Distance = "Euclid"
	DistanceDot    Distance = "Dot"
)

// ParseDistance maps a configured metric name onto a Distance.
func ParseDistance(s string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine":
		return DistanceCosine, nil
	case "euclid", "euclidean", "l2":
		return DistanceEuclid, nil
	case "dot":
		return DistanceDot, nil
	default:
		return "", fmt.Errorf("unsupported distance metric: %q", s)
	}
}

// Schema describes a collection's single named vector field. The field name,
// dimensionality and distance metric are immutable for the collection's
// lifetime; changing any of them requires full recreation.
type Schema struct {
	// VectorName is the key under which vectors are stored and queried.
	VectorName string

	// Size is the vector dimensionality.
	Size uint64

	// Distance is the similarity metric.
	Distance Distance
}

// PointID identifies a stored point. Dataset points use dense integer ids
// (their ordinal position); memory facts use UUIDs.
type PointID struct {
	num     uint64
	uuid    string
	numeric bool
}

// NumID creates an integer point id.
func NumID(n uint64) PointID {
	return PointID{num: n, numeric: true}
}

// UUIDID creates a UUID point id.
func UUIDID(s string) PointID {
	return PointID{uuid: s}
}

// IsNum reports whether the id is an integer id.
func (id PointID) IsNum() bool { return id.numeric }

// Num returns the integer id. Only meaningful when IsNum is true.
func (id PointID) Num() uint64 { return id.num }

// UUID returns the UUID id. Only meaningful when IsNum is false.
func (id PointID) UUID() string { return id.uuid }

func (id PointID) String() string {
	if id.numeric {
		return fmt.Sprintf("%d", id.num)
	}
	return id.uuid
}

// Point is the unit of storage: an identity, a payload, and one or more named
// vectors.
type Point struct {
	// ID is the point's stable identity.
	ID PointID

	// Payload is arbitrary metadata stored alongside the vectors.
	Payload map[string]any

	// Vectors maps vector field name to embedding.
	Vectors map[string][]float32
}

// Status is the indexing state of a collection.
type Status int

const (
	// StatusUnknown means the store reported a state this driver does not model.
	StatusUnknown Status = iota

	// StatusPending means uploaded points are not yet fully indexed.
	StatusPending

	// StatusReady means all accepted writes are indexed and visible to queries.
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// QueryParams describes one similarity query.
type QueryParams struct {
	// Vector is the query embedding.
	Vector []float32

	// Using names the vector field to search. Must match the field the
	// queried vectors were written under.
	Using string

	// Limit caps the number of results. Defaults to 10 when zero.
	Limit int
}

// QueryResult is a single match from a similarity search.
type QueryResult struct {
	ID      PointID
	Score   float32
	Payload map[string]any
}

// Driver handles collection lifecycle, point storage and similarity search
// against a vector store.
type Driver interface {
	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection with the given schema.
	CreateCollection(ctx context.Context, name string, schema Schema) error

	// DeleteCollection removes a collection and all its points.
	DeleteCollection(ctx context.Context, name string) error

	// CollectionStatus reports the collection's indexing state.
	CollectionStatus(ctx context.Context, name string) (Status, error)

	// Upsert writes points into the collection. Writing a point whose id
	// already exists overwrites it.
	Upsert(ctx context.Context, name string, points []Point) error

	// Query runs a similarity search and returns ranked results with score
	// and payload.
	Query(ctx context.Context, name string, params QueryParams) ([]QueryResult, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, name string) (uint64, error)

	// Close releases any resources held by the driver.
	Close() error
}
