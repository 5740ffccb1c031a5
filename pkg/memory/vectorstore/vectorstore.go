// Package vectorstore implements agent memory on top of a vector store.
// Facts are embedded at store time and recalled by similarity search; the
// backing collection is created on first use and never dropped, so memory
// persists across driver instances and sessions.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/embeddings"
	"github.com/caselode/caselode/pkg/ingest"
	"github.com/caselode/caselode/pkg/memory"
	"github.com/caselode/caselode/pkg/vector"
)

const (
	// DefaultCollection is the collection facts are stored in.
	DefaultCollection = "agent-memory"

	// DefaultTopK is the number of facts returned when no limit is given.
	DefaultTopK = 3

	// payloadKeyInformation is the payload key holding the fact text.
	payloadKeyInformation = "information"
)

// Opts configures a memory driver.
type Opts struct {
	// Collection is the backing collection name. Defaults to
	// DefaultCollection.
	Collection string

	// Dimensions is the embedding dimensionality, required when the
	// collection does not exist yet.
	Dimensions uint64

	// Distance is the similarity metric. Defaults to cosine.
	Distance vector.Distance
}

// Driver is a memory.Driver backed by a vector store and an embedder.
type Driver struct {
	store      vector.Driver
	embedder   embeddings.Embedder
	logger     *zap.Logger
	collection string
	vectorName string
	schema     vector.Schema
}

// NewDriver creates a memory driver. The backing collection is created if it
// does not exist; an existing collection is reused as-is so previously stored
// facts stay recallable.
func NewDriver(ctx context.Context, store vector.Driver, embedder embeddings.Embedder, logger *zap.Logger, opts Opts) (*Driver, error) {
	if store == nil {
		return nil, fmt.Errorf("vector driver is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	collection := opts.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	distance := opts.Distance
	if distance == "" {
		distance = vector.DistanceCosine
	}

	driver := &Driver{
		store:      store,
		embedder:   embedder,
		logger:     logger,
		collection: collection,
		vectorName: ingest.VectorFieldName(embedder.Model()),
		schema: vector.Schema{
			VectorName: ingest.VectorFieldName(embedder.Model()),
			Size:       opts.Dimensions,
			Distance:   distance,
		},
	}

	if err := driver.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return driver, nil
}

func (d *Driver) ensureCollection(ctx context.Context) error {
	exists, err := d.store.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("checking memory collection %q: %w", d.collection, err)
	}
	if exists {
		return nil
	}

	if d.schema.Size == 0 {
		return fmt.Errorf("creating memory collection %q: dimensions are required", d.collection)
	}
	if err := d.store.CreateCollection(ctx, d.collection, d.schema); err != nil {
		return fmt.Errorf("creating memory collection %q: %w", d.collection, err)
	}

	d.logger.Info("memory collection created",
		zap.String("collection", d.collection),
		zap.String("vector_name", d.vectorName),
	)
	return nil
}

// Store embeds the information and writes it as a new fact. Facts never
// overwrite each other; every store call mints a fresh id.
func (d *Driver) Store(ctx context.Context, information string) (memory.Fact, error) {
	information = strings.TrimSpace(information)
	if information == "" {
		return memory.Fact{}, memory.ErrEmptyInformation
	}

	embedding, err := d.embedder.Embed(ctx, information)
	if err != nil {
		return memory.Fact{}, fmt.Errorf("embedding information: %w", err)
	}

	fact := memory.Fact{
		ID:          uuid.NewString(),
		Information: information,
	}
	point := vector.Point{
		ID:      vector.UUIDID(fact.ID),
		Payload: map[string]any{payloadKeyInformation: information},
		Vectors: map[string][]float32{d.vectorName: embedding},
	}
	if err := d.store.Upsert(ctx, d.collection, []vector.Point{point}); err != nil {
		return memory.Fact{}, fmt.Errorf("storing fact: %w", err)
	}

	d.logger.Debug("fact stored", zap.String("id", fact.ID))
	return fact, nil
}

// Find embeds the query and returns the closest stored facts.
func (d *Driver) Find(ctx context.Context, query string, topK int) ([]memory.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, memory.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := d.store.Query(ctx, d.collection, vector.QueryParams{
		Vector: embedding,
		Using:  d.vectorName,
		Limit:  topK,
	})
	if err != nil {
		return nil, fmt.Errorf("searching memory: %w", err)
	}

	results := make([]memory.Result, 0, len(matches))
	for _, match := range matches {
		information, _ := match.Payload[payloadKeyInformation].(string)
		results = append(results, memory.Result{
			Fact: memory.Fact{
				ID:          match.ID.String(),
				Information: information,
			},
			Score: match.Score,
		})
	}
	return results, nil
}

// Close releases the backing store and embedder.
func (d *Driver) Close() error {
	if err := d.embedder.Close(); err != nil {
		return err
	}
	return d.store.Close()
}

var _ memory.Driver = (*Driver)(nil)
