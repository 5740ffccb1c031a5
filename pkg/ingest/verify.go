package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/dataset"
	"github.com/caselode/caselode/pkg/embeddings"
	"github.com/caselode/caselode/pkg/vector"
)

// ProbeResult reports the outcome of a verification probe.
type ProbeResult struct {
	// Matched reports whether the top result was the expected point.
	Matched bool

	// Score is the similarity score of the top result.
	Score float32

	// ReturnedID is the id of the top result.
	ReturnedID vector.PointID
}

// Verify runs a round-trip sanity probe against a freshly ingested
// collection: it re-derives the record's document text, embeds it with the
// same embedder the upload used, and queries for the single nearest point. A
// healthy collection returns the record's own point as the top match.
func Verify(ctx context.Context, driver vector.Driver, embedder embeddings.Embedder, collection, vectorName string, record dataset.Record, expectedID uint64, logger *zap.Logger) (*ProbeResult, error) {
	text, err := DeriveDocumentText(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	embedding, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding probe text: %w", ErrVerification, err)
	}

	results, err := driver.Query(ctx, collection, vector.QueryParams{
		Vector: embedding,
		Using:  vectorName,
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection %q: %w", ErrVerification, collection, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: collection %q returned no results", ErrVerification, collection)
	}

	top := results[0]
	result := &ProbeResult{
		Matched:    top.ID.IsNum() && top.ID.Num() == expectedID,
		Score:      top.Score,
		ReturnedID: top.ID,
	}

	if !result.Matched {
		return result, fmt.Errorf("%w: expected point %d as top result, got %s",
			ErrVerification, expectedID, top.ID)
	}

	logger.Info("verification probe passed",
		zap.String("collection", collection),
		zap.Uint64("point", expectedID),
		zap.Float32("score", top.Score),
	)
	return result, nil
}
