package qdrantDB

import (
	"context"
	"errors"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger = logger_i.NewLogger("Qdrant")
var dimension = uint64(config.EmbeddingOutputDimensionality)

// ClientHolder backs the semantic answer cache. The chunk index itself lives on disk.
type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
}

// NewSemanticCache connects to Qdrant and makes sure the cache collection exists.
// The client is closed when ctx ends.
func NewSemanticCache(ctx context.Context, host string, port int) (*ClientHolder, error) {
	if host == "" {
		return nil, errors.New("qdrant host not configured")
	}
	client, err := newClient(ctx, host, port)
	if err != nil {
		return nil, err
	}
	go closeQdrant(ctx, client)
	return &ClientHolder{
		QObj:       client,
		collection: config.SemanticCacheCollection,
	}, nil
}

func newClient(ctx context.Context, host string, port int) (*qdrant.Client, error) {
	if port <= 0 {
		port = config.QdrantGrpcPort
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if err := createCollection(initCtx, client, config.SemanticCacheCollection); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
