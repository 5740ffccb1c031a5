package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/embeddings"
	"github.com/caselode/caselode/pkg/embeddings/ollama"
)

var _ = Describe("Ollama Embedder", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("defaults model and base URL", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Model()).To(Equal(ollama.DefaultEmbeddingModel))
	})

	It("sends the configured model and returns the embedding", func() {
		var gotModel, gotInput string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Model string `json:"model"`
				Input string `json:"input"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			gotModel = req.Model
			gotInput = req.Input

			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{0.1, 0.2, 0.3}},
			})
		}))
		defer server.Close()

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: server.URL,
			Model:   "all-minilm",
		})
		Expect(err).NotTo(HaveOccurred())

		vec, err := e.Embed(ctx, "some judgment text")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.1, 0.2, 0.3}))
		Expect(gotModel).To(Equal("all-minilm"))
		Expect(gotInput).To(Equal("some judgment text"))
	})

	It("wraps upstream failures in ErrEmbedding", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(ctx, "text")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})

	It("fails when no embeddings come back", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
		}))
		defer server.Close()

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(ctx, "text")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
