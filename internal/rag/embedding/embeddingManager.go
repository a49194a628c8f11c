package embedding

import "context"

// Embedder turns text into vectors. Every vector from one Embedder has the same dimension.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error)
}
