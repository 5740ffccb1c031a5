package mcp

import (
	"context"
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	caselogger "github.com/caselode/caselode/pkg/logger"
	testutils "github.com/caselode/caselode/pkg/utils/test"
)

var _ = Describe("Memory tools", func() {
	var (
		server       *Server
		memoryDriver *testutils.MockMemoryDriver
		ctx          context.Context
	)

	BeforeEach(func() {
		ctx = context.TODO()
		memoryDriver = testutils.NewMockMemoryDriver()

		var err error
		server, err = NewServer(Config{
			MemoryDriver: memoryDriver,
			Logger:       caselogger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("handleStore", func() {
		It("stores information and returns the fact", func() {
			result, output, err := server.handleStore(ctx, nil, StoreInput{
				Information: "the dog is called buddy",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Fact.ID).NotTo(BeEmpty())
			Expect(output.Fact.Information).To(Equal("the dog is called buddy"))
			Expect(memoryDriver.Facts()).To(HaveLen(1))
		})

		It("rejects empty information", func() {
			result, _, err := server.handleStore(ctx, nil, StoreInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(memoryDriver.Facts()).To(BeEmpty())
		})

		It("reports driver failures as tool errors", func() {
			memoryDriver.StoreErr = context.DeadlineExceeded

			result, _, err := server.handleStore(ctx, nil, StoreInput{
				Information: "something",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("handleFind", func() {
		BeforeEach(func() {
			_, err := memoryDriver.Store(ctx, "the dog is called buddy")
			Expect(err).NotTo(HaveOccurred())
			_, err = memoryDriver.Store(ctx, "the cat is called whiskers")
			Expect(err).NotTo(HaveOccurred())
		})

		It("finds stored facts", func() {
			result, output, err := server.handleFind(ctx, nil, FindInput{Query: "dog"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Query).To(Equal("dog"))
			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].Information).To(Equal("the dog is called buddy"))
		})

		It("returns serialized results as text content", func() {
			result, output, err := server.handleFind(ctx, nil, FindInput{Query: "dog"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Content).To(HaveLen(1))

			text, ok := result.Content[0].(*mcpsdk.TextContent)
			Expect(ok).To(BeTrue())

			var decoded FindOutput
			Expect(json.Unmarshal([]byte(text.Text), &decoded)).To(Succeed())
			Expect(decoded).To(Equal(output))
		})

		It("returns an empty result set for no matches", func() {
			result, output, err := server.handleFind(ctx, nil, FindInput{Query: "parrot"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Count).To(Equal(0))
			Expect(output.Results).NotTo(BeNil())
		})

		It("rejects an empty query", func() {
			result, _, err := server.handleFind(ctx, nil, FindInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("reports driver failures as tool errors", func() {
			memoryDriver.FindErr = context.DeadlineExceeded

			result, _, err := server.handleFind(ctx, nil, FindInput{Query: "dog"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})
})
