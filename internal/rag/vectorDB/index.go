package vectorDB

import (
	"fmt"
	"math"
	"sort"

	"github.com/akolanti/RegGuru/internal/domain/commonModels"
)

// Index is the in-memory form of the vector index: records in insertion order,
// all vectors of the same dimension.
type Index struct {
	dimension  int
	records    []commonModels.ChunkRecord
	norms      []float64
	generation string
}

func NewIndex(dimension int) *Index {
	return &Index{dimension: dimension}
}

func (idx *Index) Dimension() int {
	return idx.dimension
}

// Generation identifies the persisted state this index was loaded from or last written as.
// It is empty for an index that was never persisted.
func (idx *Index) Generation() string {
	return idx.generation
}

func (idx *Index) SetGeneration(generation string) {
	idx.generation = generation
}

func (idx *Index) Len() int {
	return len(idx.records)
}

// Records returns the stored records. The slice must not be modified.
func (idx *Index) Records() []commonModels.ChunkRecord {
	return idx.records
}

// Add appends records. The first record fixes the dimension of an empty index.
func (idx *Index) Add(records ...commonModels.ChunkRecord) error {
	dim := idx.dimension
	for i, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("record %d (%s) has no vector", i, r.Id)
		}
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return fmt.Errorf("record %d (%s): vector dimension %d, index dimension %d", i, r.Id, len(r.Vector), dim)
		}
	}
	idx.dimension = dim
	for _, r := range records {
		idx.records = append(idx.records, r)
		idx.norms = append(idx.norms, norm(r.Vector))
	}
	return nil
}

// Search ranks records by cosine similarity to vector, highest first.
// Equal scores keep insertion order.
func (idx *Index) Search(vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if k <= 0 || len(idx.records) == 0 {
		return nil, nil
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(vector), idx.dimension)
	}

	qNorm := norm(vector)
	scored := make([]commonModels.ScoredChunk, len(idx.records))
	for i, r := range idx.records {
		scored[i] = commonModels.ScoredChunk{Record: r, Score: cosine(r.Vector, idx.norms[i], vector, qNorm)}
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float32 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (aNorm * bNorm))
}
