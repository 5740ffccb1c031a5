package ingest_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/dataset"
	"github.com/caselode/caselode/pkg/ingest"
	"github.com/caselode/caselode/pkg/logger"
	testutils "github.com/caselode/caselode/pkg/utils/test"
	"github.com/caselode/caselode/pkg/vector"
)

var _ = Describe("Verify", func() {
	var (
		driver   *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		ctx      context.Context
	)

	const (
		collection = "caselaw"
		vectorName = "fast-mock-embed"
	)

	record := dataset.Record{"title": "Miranda v. Arizona", "summary": "Custodial warnings."}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["Miranda v. Arizona: Custodial warnings."] = []float32{1, 0, 0}

		err := driver.CreateCollection(ctx, collection, vector.Schema{
			VectorName: vectorName,
			Size:       3,
			Distance:   vector.DistanceCosine,
		})
		Expect(err).NotTo(HaveOccurred())

		err = driver.Upsert(ctx, collection, []vector.Point{
			{
				ID:      vector.NumID(0),
				Payload: map[string]any{"document": "Miranda v. Arizona: Custodial warnings."},
				Vectors: map[string][]float32{vectorName: {1, 0, 0}},
			},
			{
				ID:      vector.NumID(1),
				Payload: map[string]any{"document": "unrelated"},
				Vectors: map[string][]float32{vectorName: {0, 1, 0}},
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("matches when the record round-trips to its own point", func() {
		result, err := ingest.Verify(ctx, driver, embedder, collection, vectorName, record, 0, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Matched).To(BeTrue())
		Expect(result.ReturnedID).To(Equal(vector.NumID(0)))
		Expect(result.Score).To(BeNumerically("~", 1.0, 0.001))
	})

	It("fails when a different point is the top result", func() {
		driver.QueryResults = []vector.QueryResult{
			{ID: vector.NumID(1), Score: 0.4},
		}

		result, err := ingest.Verify(ctx, driver, embedder, collection, vectorName, record, 0, logger.Nop())
		Expect(err).To(MatchError(ingest.ErrVerification))
		Expect(result).NotTo(BeNil())
		Expect(result.Matched).To(BeFalse())
		Expect(result.ReturnedID).To(Equal(vector.NumID(1)))
	})

	It("fails when the query returns nothing", func() {
		driver.QueryResults = []vector.QueryResult{}

		result, err := ingest.Verify(ctx, driver, embedder, collection, vectorName, record, 0, logger.Nop())
		Expect(err).To(MatchError(ingest.ErrVerification))
		Expect(result).To(BeNil())
	})

	It("fails when the probe record is malformed", func() {
		malformed := dataset.Record{"summary": "no title"}

		_, err := ingest.Verify(ctx, driver, embedder, collection, vectorName, malformed, 0, logger.Nop())
		Expect(err).To(MatchError(ingest.ErrVerification))
		Expect(err).To(MatchError(ingest.ErrMalformedRecord))
	})

	It("fails when the embedder fails", func() {
		embedder.FailOn = "Miranda v. Arizona: Custodial warnings."

		_, err := ingest.Verify(ctx, driver, embedder, collection, vectorName, record, 0, logger.Nop())
		Expect(err).To(MatchError(ingest.ErrVerification))
	})
})
