package ingest_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/dataset"
	"github.com/caselode/caselode/pkg/eventstream"
	"github.com/caselode/caselode/pkg/ingest"
	"github.com/caselode/caselode/pkg/logger"
	testutils "github.com/caselode/caselode/pkg/utils/test"
	"github.com/caselode/caselode/pkg/vector"
)

type staticSource struct {
	name    string
	records []dataset.Record
	err     error
}

func (s *staticSource) Load(context.Context) ([]dataset.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *staticSource) Name() string { return s.name }
func (s *staticSource) Close() error { return nil }

var _ = Describe("Pipeline", func() {
	var (
		driver    *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		publisher *testutils.MockPublisher
		source    *staticSource
		ctx       context.Context
	)

	const collection = "caselaw"

	opts := func() ingest.PipelineOpts {
		return ingest.PipelineOpts{
			Collection:   collection,
			Dimensions:   3,
			BatchSize:    2,
			Parallel:     1,
			PollInterval: time.Millisecond,
			ReadyTimeout: time.Second,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		publisher = testutils.NewMockPublisher()
		source = &staticSource{
			name: "legal-cases",
			records: []dataset.Record{
				{"title": "Case A", "summary": "first"},
				{"title": "Case B", "summary": "second"},
				{"title": "Case C", "summary": "third"},
			},
		}

		// Distinct embeddings keep the probe's nearest neighbor unambiguous.
		embedder.Embeddings["Case A: first"] = []float32{1, 0, 0}
		embedder.Embeddings["Case B: second"] = []float32{0, 1, 0}
		embedder.Embeddings["Case C: third"] = []float32{0, 0, 1}
	})

	newPipeline := func(o ingest.PipelineOpts) *ingest.Pipeline {
		pipeline, err := ingest.NewPipeline(driver, embedder, source, publisher, logger.Nop(), o)
		Expect(err).NotTo(HaveOccurred())
		return pipeline
	}

	It("validates its dependencies", func() {
		_, err := ingest.NewPipeline(nil, embedder, source, publisher, logger.Nop(), opts())
		Expect(err).To(HaveOccurred())

		_, err = ingest.NewPipeline(driver, embedder, source, publisher, logger.Nop(), ingest.PipelineOpts{Dimensions: 3})
		Expect(err).To(HaveOccurred())

		_, err = ingest.NewPipeline(driver, embedder, source, publisher, logger.Nop(), ingest.PipelineOpts{Collection: collection})
		Expect(err).To(HaveOccurred())
	})

	It("runs the full refresh end to end", func() {
		summary, err := newPipeline(opts()).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(summary.Collection).To(Equal(collection))
		Expect(summary.PointCount).To(Equal(3))
		Expect(summary.Batches).To(Equal(2))
		Expect(summary.Probe.Matched).To(BeTrue())
		Expect(summary.Probe.ReturnedID).To(Equal(vector.NumID(0)))

		count, err := driver.Count(ctx, collection)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(uint64(3)))
	})

	It("replaces an existing collection", func() {
		err := driver.CreateCollection(ctx, collection, vector.Schema{
			VectorName: "stale", Size: 3, Distance: vector.DistanceCosine,
		})
		Expect(err).NotTo(HaveOccurred())
		err = driver.Upsert(ctx, collection, []vector.Point{{
			ID:      vector.NumID(99),
			Vectors: map[string][]float32{"stale": {1, 1, 1}},
		}})
		Expect(err).NotTo(HaveOccurred())

		_, err = newPipeline(opts()).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		count, err := driver.Count(ctx, collection)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(uint64(3)))
	})

	It("emits lifecycle and batch events in order", func() {
		_, err := newPipeline(opts()).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		events := publisher.Events()
		Expect(events).To(HaveLen(4))
		Expect(events[0].EventType).To(Equal(eventstream.EventTypeIngestStarted))
		Expect(events[0].Dataset).To(Equal("legal-cases"))
		Expect(events[3].EventType).To(Equal(eventstream.EventTypeIngestCompleted))
		Expect(events[3].PointCount).To(Equal(3))
		Expect(publisher.EventsOfType(eventstream.EventTypeBatchUploaded)).To(HaveLen(2))
	})

	It("aborts before upload on a malformed record", func() {
		source.records = []dataset.Record{
			{"title": "Case A", "summary": "first"},
			{"summary": "no title"},
		}

		_, err := newPipeline(opts()).Run(ctx)
		Expect(err).To(MatchError(ingest.ErrMalformedRecord))
		Expect(driver.UpsertBatches()).To(BeEmpty())
		Expect(publisher.EventsOfType(eventstream.EventTypeIngestCompleted)).To(BeEmpty())
	})

	It("fails on an empty dataset", func() {
		source.records = nil

		_, err := newPipeline(opts()).Run(ctx)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("empty"))
	})

	It("fails when the dataset cannot be loaded", func() {
		source.err = errors.New("rows endpoint unavailable")

		_, err := newPipeline(opts()).Run(ctx)
		Expect(err).To(HaveOccurred())
		Expect(driver.UpsertBatches()).To(BeEmpty())
	})

	It("fails when readiness times out", func() {
		driver.StatusSequence = []vector.Status{vector.StatusPending}
		o := opts()
		o.ReadyTimeout = 20 * time.Millisecond

		_, err := newPipeline(o).Run(ctx)
		Expect(err).To(MatchError(ingest.ErrReadinessTimeout))
		Expect(publisher.EventsOfType(eventstream.EventTypeIngestCompleted)).To(BeEmpty())
	})

	It("runs without a publisher", func() {
		pipeline, err := ingest.NewPipeline(driver, embedder, source, nil, logger.Nop(), opts())
		Expect(err).NotTo(HaveOccurred())

		summary, err := pipeline.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.PointCount).To(Equal(3))
	})
})
