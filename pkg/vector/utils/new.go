// Package vectorutils is the vector driver utility package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/vector"
	"github.com/caselode/caselode/pkg/vector/memstore"
	"github.com/caselode/caselode/pkg/vector/qdrant"
	"github.com/caselode/caselode/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	Target       string
	APIKey       string
	UseTLS       bool
	Logger       *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "qdrant":
		return qdrant.NewQdrantDriver(qdrant.Config{
			Addr:   o.Target,
			APIKey: o.APIKey,
			UseTLS: o.UseTLS,
		}, o.Logger)
	case "sqlitevec":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath: o.Target,
		}, o.Logger)
	case "memory":
		return memstore.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
