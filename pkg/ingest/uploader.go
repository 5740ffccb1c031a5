package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/caselode/caselode/pkg/embeddings"
	"github.com/caselode/caselode/pkg/eventstream"
	"github.com/caselode/caselode/pkg/vector"
)

const (
	// DefaultBatchSize is the number of points per upload batch.
	DefaultBatchSize = 64

	// DefaultParallel is the number of batches uploaded concurrently.
	DefaultParallel = 16
)

// Batch is one contiguous slice of the point sequence.
type Batch struct {
	// Index is the batch's 0-based position in the partition.
	Index int

	// Points are the batch members, in dataset order.
	Points []Point
}

// Partition splits points into contiguous batches of at most size points.
// Every point lands in exactly one batch and batch order follows point order;
// only the final batch may be short.
func Partition(points []Point, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([]Batch, 0, (len(points)+size-1)/size)
	for start := 0; start < len(points); start += size {
		end := start + size
		if end > len(points) {
			end = len(points)
		}
		batches = append(batches, Batch{Index: len(batches), Points: points[start:end]})
	}
	return batches
}

// Uploader resolves deferred embeddings and writes point batches to a vector
// store with bounded concurrency.
type Uploader struct {
	driver    vector.Driver
	embedder  embeddings.Embedder
	publisher eventstream.Publisher
	logger    *zap.Logger
	batchSize int
	parallel  int
}

// UploaderOpts configures an Uploader. Zero values fall back to defaults.
type UploaderOpts struct {
	// BatchSize is the number of points per batch.
	BatchSize int

	// Parallel is the maximum number of batches in flight at once.
	Parallel int
}

// NewUploader creates an Uploader. The publisher may be nil, in which case no
// batch events are emitted.
func NewUploader(driver vector.Driver, embedder embeddings.Embedder, publisher eventstream.Publisher, logger *zap.Logger, opts UploaderOpts) (*Uploader, error) {
	if driver == nil {
		return nil, fmt.Errorf("vector driver is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	return &Uploader{
		driver:    driver,
		embedder:  embedder,
		publisher: publisher,
		logger:    logger,
		batchSize: batchSize,
		parallel:  parallel,
	}, nil
}

// Upload writes all points into the collection. Batches run concurrently up
// to the parallelism bound; the first failing batch cancels the remaining
// work and fails the upload. There is no partial-success mode.
func (u *Uploader) Upload(ctx context.Context, collection string, points []Point) error {
	batches := Partition(points, u.batchSize)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(u.parallel)

	for _, batch := range batches {
		group.Go(func() error {
			return u.uploadBatch(groupCtx, collection, batch)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	u.logger.Info("upload complete",
		zap.String("collection", collection),
		zap.Int("points", len(points)),
		zap.Int("batches", len(batches)),
	)
	return nil
}

func (u *Uploader) uploadBatch(ctx context.Context, collection string, batch Batch) error {
	stored := make([]vector.Point, 0, len(batch.Points))
	for _, point := range batch.Points {
		resolved, err := u.resolve(ctx, point)
		if err != nil {
			return fmt.Errorf("%w: batch %d: %w", ErrUpload, batch.Index, err)
		}
		stored = append(stored, resolved)
	}

	if err := u.driver.Upsert(ctx, collection, stored); err != nil {
		return fmt.Errorf("%w: batch %d: %w", ErrUpload, batch.Index, err)
	}

	u.logger.Debug("batch uploaded",
		zap.String("collection", collection),
		zap.Int("batch", batch.Index),
		zap.Int("points", len(batch.Points)),
	)
	u.publishBatch(ctx, collection, batch)
	return nil
}

// resolve turns a point's deferred embedding requests into numeric vectors.
// A request naming a model other than the uploader's embedder is rejected,
// since the resulting vector would not match later queries.
func (u *Uploader) resolve(ctx context.Context, point Point) (vector.Point, error) {
	vectors := make(map[string][]float32, len(point.Vector))
	for name, request := range point.Vector {
		if request.Model != "" && request.Model != u.embedder.Model() {
			return vector.Point{}, fmt.Errorf("point %d: vector %q requests model %q but embedder provides %q",
				point.ID, name, request.Model, u.embedder.Model())
		}

		embedding, err := u.embedder.Embed(ctx, request.Text)
		if err != nil {
			return vector.Point{}, fmt.Errorf("point %d: embedding vector %q: %w", point.ID, name, err)
		}
		vectors[name] = embedding
	}

	return vector.Point{
		ID:      vector.NumID(point.ID),
		Payload: point.Payload,
		Vectors: vectors,
	}, nil
}

// publishBatch emits a batch-uploaded event. Event delivery is best effort;
// a publish failure is logged and never fails the upload.
func (u *Uploader) publishBatch(ctx context.Context, collection string, batch Batch) {
	if u.publisher == nil {
		return
	}

	event := eventstream.NewIngestEvent(eventstream.EventTypeBatchUploaded, collection)
	index := batch.Index
	event.BatchIndex = &index
	event.BatchSize = len(batch.Points)

	if err := u.publisher.PublishIngest(ctx, event); err != nil {
		u.logger.Warn("failed to publish batch event",
			zap.Int("batch", batch.Index),
			zap.Error(err),
		)
	}
}
