package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/vector"
)

// Provision performs a full refresh of the target collection: any existing
// collection under the name is dropped before a fresh one is created with the
// given schema. Every run starts from an empty collection; stale points from
// earlier runs never survive.
func Provision(ctx context.Context, driver vector.Driver, collection string, schema vector.Schema, logger *zap.Logger) error {
	exists, err := driver.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %w", ErrProvisioning, collection, err)
	}

	if exists {
		logger.Info("dropping existing collection", zap.String("collection", collection))
		if err := driver.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("%w: deleting collection %q: %w", ErrProvisioning, collection, err)
		}
	}

	if err := driver.CreateCollection(ctx, collection, schema); err != nil {
		return fmt.Errorf("%w: creating collection %q: %w", ErrProvisioning, collection, err)
	}

	logger.Info("collection provisioned",
		zap.String("collection", collection),
		zap.String("vector_name", schema.VectorName),
		zap.Uint64("dimensions", schema.Size),
		zap.String("distance", string(schema.Distance)),
	)
	return nil
}
