package jsonl_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/dataset/jsonl"
)

var _ = Describe("JSONL Source", func() {
	var (
		dir  string
		path string
		ctx  context.Context
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "corpus.jsonl")
		ctx = context.Background()
	})

	writeFile := func(content string) {
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	}

	It("requires a path", func() {
		_, err := jsonl.NewSource("")
		Expect(err).To(HaveOccurred())
	})

	It("loads records in line order", func() {
		writeFile(`{"title":"A","summary":"x"}` + "\n" +
			`{"title":"B"}` + "\n" +
			`{"title":"C","summary":"z"}` + "\n")

		src, err := jsonl.NewSource(path)
		Expect(err).NotTo(HaveOccurred())

		records, err := src.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0].String("title")).To(Equal("A"))
		Expect(records[1].String("title")).To(Equal("B"))
		Expect(records[1].String("summary")).To(Equal(""))
		Expect(records[2].String("summary")).To(Equal("z"))
	})

	It("skips blank lines", func() {
		writeFile("{\"title\":\"A\"}\n\n{\"title\":\"B\"}\n")

		src, err := jsonl.NewSource(path)
		Expect(err).NotTo(HaveOccurred())

		records, err := src.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
	})

	It("fails on malformed JSON with the offending line number", func() {
		writeFile("{\"title\":\"A\"}\nnot json\n")

		src, err := jsonl.NewSource(path)
		Expect(err).NotTo(HaveOccurred())

		_, err = src.Load(ctx)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})

	It("fails when the file does not exist", func() {
		src, err := jsonl.NewSource(filepath.Join(dir, "missing.jsonl"))
		Expect(err).NotTo(HaveOccurred())

		_, err = src.Load(ctx)
		Expect(err).To(HaveOccurred())
	})
})
