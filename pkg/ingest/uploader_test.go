package ingest_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/dataset"
	"github.com/caselode/caselode/pkg/eventstream"
	"github.com/caselode/caselode/pkg/ingest"
	"github.com/caselode/caselode/pkg/logger"
	testutils "github.com/caselode/caselode/pkg/utils/test"
	"github.com/caselode/caselode/pkg/vector"
)

func buildTestPoints(n int) []ingest.Point {
	records := make([]dataset.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, dataset.Record{
			"title":   "Case",
			"summary": "summary",
		})
	}
	points, err := ingest.BuildPoints(records, "mock-embed")
	Expect(err).NotTo(HaveOccurred())
	return points
}

var _ = Describe("Partition", func() {
	It("splits points into contiguous batches", func() {
		batches := ingest.Partition(buildTestPoints(10), 3)
		Expect(batches).To(HaveLen(4))

		Expect(batches[0].Points).To(HaveLen(3))
		Expect(batches[1].Points).To(HaveLen(3))
		Expect(batches[2].Points).To(HaveLen(3))
		Expect(batches[3].Points).To(HaveLen(1))

		Expect(batches[0].Points[0].ID).To(Equal(uint64(0)))
		Expect(batches[3].Points[0].ID).To(Equal(uint64(9)))
		for i, batch := range batches {
			Expect(batch.Index).To(Equal(i))
		}
	})

	It("keeps exact multiples full", func() {
		batches := ingest.Partition(buildTestPoints(6), 3)
		Expect(batches).To(HaveLen(2))
		Expect(batches[0].Points).To(HaveLen(3))
		Expect(batches[1].Points).To(HaveLen(3))
	})

	It("returns no batches for no points", func() {
		Expect(ingest.Partition(nil, 3)).To(BeEmpty())
	})

	It("falls back to the default batch size", func() {
		batches := ingest.Partition(buildTestPoints(65), 0)
		Expect(batches).To(HaveLen(2))
		Expect(batches[0].Points).To(HaveLen(64))
		Expect(batches[1].Points).To(HaveLen(1))
	})
})

var _ = Describe("Uploader", func() {
	var (
		driver    *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		publisher *testutils.MockPublisher
		ctx       context.Context
	)

	const collection = "caselaw"

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		publisher = testutils.NewMockPublisher()

		err := driver.CreateCollection(ctx, collection, vector.Schema{
			VectorName: "fast-mock-embed",
			Size:       3,
			Distance:   vector.DistanceCosine,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	newUploader := func(opts ingest.UploaderOpts) *ingest.Uploader {
		uploader, err := ingest.NewUploader(driver, embedder, publisher, logger.Nop(), opts)
		Expect(err).NotTo(HaveOccurred())
		return uploader
	}

	It("requires a driver, an embedder and a logger", func() {
		_, err := ingest.NewUploader(nil, embedder, publisher, logger.Nop(), ingest.UploaderOpts{})
		Expect(err).To(HaveOccurred())

		_, err = ingest.NewUploader(driver, nil, publisher, logger.Nop(), ingest.UploaderOpts{})
		Expect(err).To(HaveOccurred())

		_, err = ingest.NewUploader(driver, embedder, publisher, nil, ingest.UploaderOpts{})
		Expect(err).To(HaveOccurred())
	})

	It("uploads three points in batches of two", func() {
		uploader := newUploader(ingest.UploaderOpts{BatchSize: 2, Parallel: 1})

		err := uploader.Upload(ctx, collection, buildTestPoints(3))
		Expect(err).NotTo(HaveOccurred())

		batches := driver.UpsertBatches()
		Expect(batches).To(HaveLen(2))
		Expect(batches[0]).To(HaveLen(2))
		Expect(batches[1]).To(HaveLen(1))
		Expect(batches[0][0].ID).To(Equal(vector.NumID(0)))
		Expect(batches[0][1].ID).To(Equal(vector.NumID(1)))
		Expect(batches[1][0].ID).To(Equal(vector.NumID(2)))

		count, err := driver.Count(ctx, collection)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(uint64(3)))
	})

	It("resolves deferred embedding requests through the embedder", func() {
		embedder.Embeddings["Case: summary"] = []float32{1, 0, 0}
		uploader := newUploader(ingest.UploaderOpts{BatchSize: 10, Parallel: 1})

		err := uploader.Upload(ctx, collection, buildTestPoints(1))
		Expect(err).NotTo(HaveOccurred())

		batches := driver.UpsertBatches()
		Expect(batches).To(HaveLen(1))
		Expect(batches[0][0].Vectors).To(HaveKeyWithValue("fast-mock-embed", []float32{1, 0, 0}))
	})

	It("rejects a request for a model the embedder does not provide", func() {
		points := buildTestPoints(1)
		request := points[0].Vector["fast-mock-embed"]
		request.Model = "some-other-model"
		points[0].Vector["fast-mock-embed"] = request

		uploader := newUploader(ingest.UploaderOpts{Parallel: 1})

		err := uploader.Upload(ctx, collection, points)
		Expect(err).To(MatchError(ingest.ErrUpload))
		Expect(err.Error()).To(ContainSubstring("some-other-model"))
		Expect(driver.UpsertBatches()).To(BeEmpty())
	})

	It("fails the upload when a batch write fails", func() {
		driver.UpsertErr = errors.New("store unavailable")
		uploader := newUploader(ingest.UploaderOpts{BatchSize: 2, Parallel: 1})

		err := uploader.Upload(ctx, collection, buildTestPoints(3))
		Expect(err).To(MatchError(ingest.ErrUpload))
	})

	It("emits one event per uploaded batch", func() {
		uploader := newUploader(ingest.UploaderOpts{BatchSize: 2, Parallel: 1})

		err := uploader.Upload(ctx, collection, buildTestPoints(3))
		Expect(err).NotTo(HaveOccurred())

		events := publisher.EventsOfType(eventstream.EventTypeBatchUploaded)
		Expect(events).To(HaveLen(2))

		indexes := []int{*events[0].BatchIndex, *events[1].BatchIndex}
		Expect(indexes).To(ConsistOf(0, 1))
		for _, event := range events {
			Expect(event.Collection).To(Equal(collection))
			Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		}
	})

	It("treats event delivery as best effort", func() {
		publisher.FailPublish = errors.New("broker down")
		uploader := newUploader(ingest.UploaderOpts{BatchSize: 2, Parallel: 1})

		err := uploader.Upload(ctx, collection, buildTestPoints(3))
		Expect(err).NotTo(HaveOccurred())

		count, err := driver.Count(ctx, collection)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(uint64(3)))
	})

	It("uploads all batches under concurrency", func() {
		uploader := newUploader(ingest.UploaderOpts{BatchSize: 2, Parallel: 8})

		err := uploader.Upload(ctx, collection, buildTestPoints(17))
		Expect(err).NotTo(HaveOccurred())

		Expect(driver.UpsertBatches()).To(HaveLen(9))
		count, err := driver.Count(ctx, collection)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(uint64(17)))
	})
})
