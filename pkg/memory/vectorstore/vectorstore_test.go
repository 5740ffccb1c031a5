package vectorstore_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/logger"
	"github.com/caselode/caselode/pkg/memory"
	"github.com/caselode/caselode/pkg/memory/vectorstore"
	testutils "github.com/caselode/caselode/pkg/utils/test"
	"github.com/caselode/caselode/pkg/vector/memstore"
)

var _ = Describe("Driver", func() {
	var (
		store    *memstore.Driver
		embedder *testutils.MockEmbedder
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memstore.NewDriver()
		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["the dog is called buddy"] = []float32{1, 0, 0}
		embedder.Embeddings["what is the dog called?"] = []float32{0.9, 0.1, 0}
		embedder.Embeddings["the cat is called whiskers"] = []float32{0, 1, 0}
	})

	newDriver := func() *vectorstore.Driver {
		driver, err := vectorstore.NewDriver(ctx, store, embedder, logger.Nop(), vectorstore.Opts{
			Dimensions: 3,
		})
		Expect(err).NotTo(HaveOccurred())
		return driver
	}

	It("requires a store, an embedder and a logger", func() {
		_, err := vectorstore.NewDriver(ctx, nil, embedder, logger.Nop(), vectorstore.Opts{Dimensions: 3})
		Expect(err).To(HaveOccurred())

		_, err = vectorstore.NewDriver(ctx, store, nil, logger.Nop(), vectorstore.Opts{Dimensions: 3})
		Expect(err).To(HaveOccurred())

		_, err = vectorstore.NewDriver(ctx, store, embedder, nil, vectorstore.Opts{Dimensions: 3})
		Expect(err).To(HaveOccurred())
	})

	It("requires dimensions for a fresh collection", func() {
		_, err := vectorstore.NewDriver(ctx, store, embedder, logger.Nop(), vectorstore.Opts{})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("dimensions"))
	})

	It("stores and recalls a fact", func() {
		driver := newDriver()

		fact, err := driver.Store(ctx, "the dog is called buddy")
		Expect(err).NotTo(HaveOccurred())
		Expect(fact.ID).NotTo(BeEmpty())
		Expect(fact.Information).To(Equal("the dog is called buddy"))

		results, err := driver.Find(ctx, "what is the dog called?", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal(fact.ID))
		Expect(results[0].Information).To(Equal("the dog is called buddy"))
	})

	It("ranks recalled facts by similarity", func() {
		driver := newDriver()

		_, err := driver.Store(ctx, "the cat is called whiskers")
		Expect(err).NotTo(HaveOccurred())
		_, err = driver.Store(ctx, "the dog is called buddy")
		Expect(err).NotTo(HaveOccurred())

		results, err := driver.Find(ctx, "what is the dog called?", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Information).To(Equal("the dog is called buddy"))
		Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
	})

	It("recalls facts stored by an earlier driver instance", func() {
		first := newDriver()
		fact, err := first.Store(ctx, "the dog is called buddy")
		Expect(err).NotTo(HaveOccurred())

		// A second instance over the same store reuses the collection.
		second, err := vectorstore.NewDriver(ctx, store, embedder, logger.Nop(), vectorstore.Opts{})
		Expect(err).NotTo(HaveOccurred())

		results, err := second.Find(ctx, "what is the dog called?", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal(fact.ID))
	})

	It("never overwrites an earlier fact", func() {
		driver := newDriver()

		first, err := driver.Store(ctx, "the dog is called buddy")
		Expect(err).NotTo(HaveOccurred())
		second, err := driver.Store(ctx, "the dog is called buddy")
		Expect(err).NotTo(HaveOccurred())
		Expect(second.ID).NotTo(Equal(first.ID))

		results, err := driver.Find(ctx, "what is the dog called?", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})

	It("rejects empty information", func() {
		_, err := newDriver().Store(ctx, "   ")
		Expect(err).To(MatchError(memory.ErrEmptyInformation))
	})

	It("rejects an empty query", func() {
		_, err := newDriver().Find(ctx, "", 1)
		Expect(err).To(MatchError(memory.ErrEmptyQuery))
	})

	It("defaults the result limit", func() {
		driver := newDriver()
		for _, fact := range []string{"a", "b", "c", "d", "e"} {
			_, err := driver.Store(ctx, fact)
			Expect(err).NotTo(HaveOccurred())
		}

		results, err := driver.Find(ctx, "what is the dog called?", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(vectorstore.DefaultTopK))
	})
})
