package memstore_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/vector"
	"github.com/caselode/caselode/pkg/vector/memstore"
)

var _ = Describe("Memstore Driver", func() {
	var (
		driver *memstore.Driver
		ctx    context.Context
		schema vector.Schema
	)

	BeforeEach(func() {
		driver = memstore.NewDriver()
		ctx = context.Background()
		schema = vector.Schema{
			VectorName: "fast-all-minilm",
			Size:       3,
			Distance:   vector.DistanceCosine,
		}
	})

	point := func(id uint64, vec []float32) vector.Point {
		return vector.Point{
			ID:      vector.NumID(id),
			Payload: map[string]any{"document": "doc"},
			Vectors: map[string][]float32{schema.VectorName: vec},
		}
	}

	Describe("collection lifecycle", func() {
		It("reports existence after creation", func() {
			exists, err := driver.CollectionExists(ctx, "cases")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())

			Expect(driver.CreateCollection(ctx, "cases", schema)).To(Succeed())

			exists, err = driver.CollectionExists(ctx, "cases")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("rejects duplicate creation", func() {
			Expect(driver.CreateCollection(ctx, "cases", schema)).To(Succeed())
			Expect(driver.CreateCollection(ctx, "cases", schema)).NotTo(Succeed())
		})

		It("rejects invalid schemas", func() {
			err := driver.CreateCollection(ctx, "cases", vector.Schema{VectorName: "v", Size: 0, Distance: vector.DistanceCosine})
			Expect(err).To(MatchError(vector.ErrInvalidSchema))

			err = driver.CreateCollection(ctx, "cases", vector.Schema{VectorName: "", Size: 3, Distance: vector.DistanceCosine})
			Expect(err).To(MatchError(vector.ErrInvalidSchema))
		})

		It("deletes collections and their points", func() {
			Expect(driver.CreateCollection(ctx, "cases", schema)).To(Succeed())
			Expect(driver.Upsert(ctx, "cases", []vector.Point{point(0, []float32{1, 0, 0})})).To(Succeed())
			Expect(driver.DeleteCollection(ctx, "cases")).To(Succeed())

			exists, err := driver.CollectionExists(ctx, "cases")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})

		It("is always ready once created", func() {
			Expect(driver.CreateCollection(ctx, "cases", schema)).To(Succeed())
			status, err := driver.CollectionStatus(ctx, "cases")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(vector.StatusReady))
		})

		It("fails status checks for missing collections", func() {
			_, err := driver.CollectionStatus(ctx, "missing")
			Expect(err).To(MatchError(vector.ErrNotFound))
		})
	})

	Describe("Upsert", func() {
		BeforeEach(func() {
			Expect(driver.CreateCollection(ctx, "cases", schema)).To(Succeed())
		})

		It("stores points and counts them", func() {
			Expect(driver.Upsert(ctx, "cases", []vector.Point{
				point(0, []float32{1, 0, 0}),
				point(1, []float32{0, 1, 0}),
			})).To(Succeed())

			count, err := driver.Count(ctx, "cases")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(uint64(2)))
		})

		It("overwrites by id", func() {
			Expect(driver.Upsert(ctx, "cases", []vector.Point{point(0, []float32{1, 0, 0})})).To(Succeed())
			Expect(driver.Upsert(ctx, "cases", []vector.Point{point(0, []float32{0, 1, 0})})).To(Succeed())

			count, err := driver.Count(ctx, "cases")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(uint64(1)))
		})

		It("rejects points missing the schema's vector field", func() {
			bad := vector.Point{
				ID:      vector.NumID(0),
				Vectors: map[string][]float32{"wrong-field": {1, 0, 0}},
			}
			Expect(driver.Upsert(ctx, "cases", []vector.Point{bad})).NotTo(Succeed())
		})

		It("rejects dimension mismatches", func() {
			Expect(driver.Upsert(ctx, "cases", []vector.Point{point(0, []float32{1, 0})})).NotTo(Succeed())
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			Expect(driver.CreateCollection(ctx, "cases", schema)).To(Succeed())
			Expect(driver.Upsert(ctx, "cases", []vector.Point{
				point(0, []float32{1, 0, 0}),
				point(1, []float32{0, 1, 0}),
				point(2, []float32{0.9, 0.1, 0}),
			})).To(Succeed())
		})

		It("ranks by cosine similarity, most similar first", func() {
			results, err := driver.Query(ctx, "cases", vector.QueryParams{
				Vector: []float32{1, 0, 0},
				Using:  schema.VectorName,
				Limit:  3,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ID.Num()).To(Equal(uint64(0)))
			Expect(results[1].ID.Num()).To(Equal(uint64(2)))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
		})

		It("honors the limit", func() {
			results, err := driver.Query(ctx, "cases", vector.QueryParams{
				Vector: []float32{1, 0, 0},
				Limit:  1,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("rejects unknown vector fields", func() {
			_, err := driver.Query(ctx, "cases", vector.QueryParams{
				Vector: []float32{1, 0, 0},
				Using:  "other-field",
			})
			Expect(err).To(HaveOccurred())
		})
	})
})
