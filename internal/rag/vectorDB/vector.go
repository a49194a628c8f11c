package vectorDB

import (
	"context"

	"github.com/akolanti/RegGuru/internal/domain/commonModels"
)

// IndexStore owns the lifecycle of the persisted similarity index.
// Create and Load+Merge are the two construction paths; callers pick one per upload
// based on Exists. Only one writer may Persist to a location at a time.
type IndexStore interface {
	Exists() bool
	Create(records []commonModels.ChunkRecord) (*Index, error)
	Load() (*Index, error)
	Merge(idx *Index, records []commonModels.ChunkRecord) (*Index, error)
	Persist(idx *Index) error
	Query(idx *Index, vector []float32, k int) ([]commonModels.ScoredChunk, error)
}

// SemanticCache stores generated answers keyed by question embedding. Every answer is
// tied to the index generation it was generated from and only served for that generation.
type SemanticCache interface {
	GetCachedAnswer(ctx context.Context, queryVector []float32, generation string) (string, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer string, generation string) error
}
