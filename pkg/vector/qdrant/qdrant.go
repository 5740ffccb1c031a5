// Package qdrant provides a Qdrant-backed vector driver over gRPC.
package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/caselode/caselode/pkg/vector"
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Addr is the gRPC address of the Qdrant instance (host:port).
	Addr string

	// APIKey is attached to every request when set.
	APIKey string

	// UseTLS enables transport security. Required by Qdrant Cloud.
	UseTLS bool
}

// QdrantDriver implements vector.Driver using Qdrant's gRPC API.
type QdrantDriver struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	logger      *zap.Logger
}

// NewQdrantDriver creates a Qdrant-backed vector driver.
func NewQdrantDriver(c Config, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Addr == "" {
		return nil, fmt.Errorf("qdrant address is required")
	}

	creds := insecure.NewCredentials()
	if c.UseTLS {
		creds = credentials.NewTLS(&tls.Config{})
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if c.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(c.APIKey)))
	}

	conn, err := grpc.NewClient(c.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant connect: %v", vector.ErrConnection, err)
	}

	logger.Info("connected to Qdrant",
		zap.String("addr", c.Addr),
		zap.Bool("tls", c.UseTLS),
	)

	return &QdrantDriver{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		logger:      logger,
	}, nil
}

// apiKeyInterceptor attaches the Qdrant api-key header to outgoing calls.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// CollectionExists reports whether the named collection exists.
func (d *QdrantDriver) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := d.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: name,
	})
	if err != nil {
		return false, fmt.Errorf("checking collection %q: %w", name, err)
	}
	return resp.GetResult().GetExists(), nil
}

// CreateCollection creates a collection with a single named vector field.
func (d *QdrantDriver) CreateCollection(ctx context.Context, name string, schema vector.Schema) error {
	distance, err := toDistance(schema.Distance)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrInvalidSchema, err)
	}
	if schema.Size == 0 {
		return fmt.Errorf("%w: vector size must be positive", vector.ErrInvalidSchema)
	}
	if schema.VectorName == "" {
		return fmt.Errorf("%w: vector field name is required", vector.ErrInvalidSchema)
	}

	_, err = d.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_ParamsMap{
				ParamsMap: &pb.VectorParamsMap{
					Map: map[string]*pb.VectorParams{
						schema.VectorName: {
							Size:     schema.Size,
							Distance: distance,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", name, err)
	}

	d.logger.Info("created collection",
		zap.String("collection", name),
		zap.String("vector_name", schema.VectorName),
		zap.Uint64("size", schema.Size),
		zap.String("distance", string(schema.Distance)),
	)

	return nil
}

// DeleteCollection removes a collection and all its points.
func (d *QdrantDriver) DeleteCollection(ctx context.Context, name string) error {
	_, err := d.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: name,
	})
	if err != nil {
		return fmt.Errorf("deleting collection %q: %w", name, err)
	}

	d.logger.Info("deleted collection", zap.String("collection", name))
	return nil
}

// CollectionStatus reports the collection's indexing state. Qdrant green maps
// to ready; yellow (optimizing) maps to pending.
func (d *QdrantDriver) CollectionStatus(ctx context.Context, name string) (vector.Status, error) {
	resp, err := d.collections.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err != nil {
		return vector.StatusUnknown, fmt.Errorf("getting collection %q: %w", name, err)
	}

	switch resp.GetResult().GetStatus() {
	case pb.CollectionStatus_Green:
		return vector.StatusReady, nil
	case pb.CollectionStatus_Yellow, pb.CollectionStatus_Grey:
		return vector.StatusPending, nil
	default:
		return vector.StatusUnknown, nil
	}
}

// Upsert writes points into the collection, overwriting by id.
func (d *QdrantDriver) Upsert(ctx context.Context, name string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		payload, err := toPayload(p.Payload)
		if err != nil {
			return fmt.Errorf("encoding payload for point %s: %w", p.ID, err)
		}

		named := make(map[string]*pb.Vector, len(p.Vectors))
		for field, data := range p.Vectors {
			named[field] = &pb.Vector{Data: data}
		}

		structs[i] = &pb.PointStruct{
			Id:      toPointID(p.ID),
			Payload: payload,
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vectors{
					Vectors: &pb.NamedVectors{Vectors: named},
				},
			},
		}
	}

	wait := true
	_, err := d.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: name,
		Wait:           &wait,
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points into %q: %w", len(points), name, err)
	}

	d.logger.Debug("upserted points",
		zap.String("collection", name),
		zap.Int("count", len(points)),
	)

	return nil
}

// Query runs a similarity search against the named vector field.
func (d *QdrantDriver) Query(ctx context.Context, name string, params vector.QueryParams) ([]vector.QueryResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	req := &pb.SearchPoints{
		CollectionName: name,
		Vector:         params.Vector,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if params.Using != "" {
		using := params.Using
		req.VectorName = &using
	}

	resp, err := d.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", name, err)
	}

	results := make([]vector.QueryResult, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		results[i] = vector.QueryResult{
			ID:      fromPointID(pt.GetId()),
			Score:   pt.GetScore(),
			Payload: fromPayload(pt.GetPayload()),
		}
	}
	return results, nil
}

// Count returns the number of points in the collection.
func (d *QdrantDriver) Count(ctx context.Context, name string) (uint64, error) {
	exact := true
	resp, err := d.points.Count(ctx, &pb.CountPoints{
		CollectionName: name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points in %q: %w", name, err)
	}
	return resp.GetResult().GetCount(), nil
}

// Close releases the gRPC connection.
func (d *QdrantDriver) Close() error {
	return d.conn.Close()
}

var _ vector.Driver = (*QdrantDriver)(nil)
