package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/dataset"
	"github.com/caselode/caselode/pkg/embeddings"
	"github.com/caselode/caselode/pkg/eventstream"
	"github.com/caselode/caselode/pkg/vector"
)

// PipelineOpts configures one ingestion run.
type PipelineOpts struct {
	// Collection is the target collection name.
	Collection string

	// Dimensions is the vector dimensionality of the collection.
	Dimensions uint64

	// Distance is the similarity metric. Defaults to cosine.
	Distance vector.Distance

	// BatchSize is the number of points per upload batch.
	BatchSize int

	// Parallel is the maximum number of batches in flight at once.
	Parallel int

	// PollInterval is the delay between readiness checks.
	PollInterval time.Duration

	// ReadyTimeout bounds the readiness wait.
	ReadyTimeout time.Duration
}

// Summary reports the outcome of an ingestion run.
type Summary struct {
	// Collection is the collection that was refreshed.
	Collection string

	// PointCount is the number of points written.
	PointCount int

	// Batches is the number of upload batches.
	Batches int

	// Probe is the verification probe outcome.
	Probe *ProbeResult
}

// Pipeline wires a dataset source, an embedder, a vector driver and an event
// publisher into one full-refresh ingestion run.
type Pipeline struct {
	driver    vector.Driver
	embedder  embeddings.Embedder
	source    dataset.Source
	publisher eventstream.Publisher
	logger    *zap.Logger
	opts      PipelineOpts
}

// NewPipeline creates a Pipeline. The publisher may be nil, in which case no
// events are emitted.
func NewPipeline(driver vector.Driver, embedder embeddings.Embedder, source dataset.Source, publisher eventstream.Publisher, logger *zap.Logger, opts PipelineOpts) (*Pipeline, error) {
	if driver == nil {
		return nil, fmt.Errorf("vector driver is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if source == nil {
		return nil, fmt.Errorf("dataset source is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if opts.Dimensions == 0 {
		return nil, fmt.Errorf("vector dimensions are required")
	}
	if opts.Distance == "" {
		opts.Distance = vector.DistanceCosine
	}

	return &Pipeline{
		driver:    driver,
		embedder:  embedder,
		source:    source,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}, nil
}

// Run executes the full pipeline: provision a fresh collection, transform the
// dataset into points, upload in parallel batches, wait for indexing, then
// verify the collection answers queries. Any stage failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	vectorName := VectorFieldName(p.embedder.Model())

	p.logger.Info("starting ingestion",
		zap.String("collection", p.opts.Collection),
		zap.String("dataset", p.source.Name()),
		zap.String("model", p.embedder.Model()),
	)
	p.publish(ctx, func(e *eventstream.IngestEvent) {
		e.Dataset = p.source.Name()
	}, eventstream.EventTypeIngestStarted)

	schema := vector.Schema{
		VectorName: vectorName,
		Size:       p.opts.Dimensions,
		Distance:   p.opts.Distance,
	}
	if err := Provision(ctx, p.driver, p.opts.Collection, schema, p.logger); err != nil {
		return nil, err
	}

	records, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %q: %w", p.source.Name(), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %q is empty", p.source.Name())
	}

	points, err := BuildPoints(records, p.embedder.Model())
	if err != nil {
		return nil, err
	}

	uploader, err := NewUploader(p.driver, p.embedder, p.publisher, p.logger, UploaderOpts{
		BatchSize: p.opts.BatchSize,
		Parallel:  p.opts.Parallel,
	})
	if err != nil {
		return nil, err
	}
	if err := uploader.Upload(ctx, p.opts.Collection, points); err != nil {
		return nil, err
	}

	if err := AwaitReady(ctx, p.driver, p.opts.Collection, p.logger, ReadinessOpts{
		Interval: p.opts.PollInterval,
		Timeout:  p.opts.ReadyTimeout,
	}); err != nil {
		return nil, err
	}

	// The first record probes the freshly built collection. Its point id is
	// its ordinal, 0.
	probe, err := Verify(ctx, p.driver, p.embedder, p.opts.Collection, vectorName, records[0], 0, p.logger)
	if err != nil {
		return nil, err
	}

	p.publish(ctx, func(e *eventstream.IngestEvent) {
		e.Dataset = p.source.Name()
		e.PointCount = len(points)
	}, eventstream.EventTypeIngestCompleted)

	p.logger.Info("ingestion complete",
		zap.String("collection", p.opts.Collection),
		zap.Int("points", len(points)),
	)

	return &Summary{
		Collection: p.opts.Collection,
		PointCount: len(points),
		Batches:    len(Partition(points, uploader.batchSize)),
		Probe:      probe,
	}, nil
}

// publish emits a lifecycle event, best effort.
func (p *Pipeline) publish(ctx context.Context, fill func(*eventstream.IngestEvent), eventType string) {
	if p.publisher == nil {
		return
	}

	event := eventstream.NewIngestEvent(eventType, p.opts.Collection)
	if fill != nil {
		fill(event)
	}
	if err := p.publisher.PublishIngest(ctx, event); err != nil {
		p.logger.Warn("failed to publish ingest event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
