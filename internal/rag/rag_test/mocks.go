package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
)

// MockIndexStore implements vectorDB.IndexStore over an in-memory index.
type MockIndexStore struct {
	Index     *vectorDB.Index
	OnLoad    func() (*vectorDB.Index, error)
	OnQuery   func(idx *vectorDB.Index, vector []float32, k int) ([]commonModels.ScoredChunk, error)
	OnPersist func(idx *vectorDB.Index) error
}

func (m *MockIndexStore) Exists() bool {
	return m.Index != nil
}

func (m *MockIndexStore) Create(records []commonModels.ChunkRecord) (*vectorDB.Index, error) {
	if len(records) == 0 {
		return nil, ragErrors.ErrEmptyInput
	}
	idx := vectorDB.NewIndex(0)
	return idx, idx.Add(records...)
}

func (m *MockIndexStore) Load() (*vectorDB.Index, error) {
	if m.OnLoad != nil {
		return m.OnLoad()
	}
	if m.Index == nil {
		return nil, ragErrors.ErrIndexNotFound
	}
	return m.Index, nil
}

func (m *MockIndexStore) Merge(idx *vectorDB.Index, records []commonModels.ChunkRecord) (*vectorDB.Index, error) {
	return idx, idx.Add(records...)
}

func (m *MockIndexStore) Query(idx *vectorDB.Index, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if m.OnQuery != nil {
		return m.OnQuery(idx, vector, k)
	}
	return idx.Search(vector, k)
}

func (m *MockIndexStore) Persist(idx *vectorDB.Index) error {
	if m.OnPersist != nil {
		return m.OnPersist(idx)
	}
	m.Index = idx
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks, isHuge)
	}
	out := make([][]float32, len(chunks))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{1, 0}, nil
}

// MockLLM implements llm.Provider and records the last prompt.
type MockLLM struct {
	OnGenerate func(ctx context.Context, prompt string) (string, error)
	LastPrompt string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt)
	}
	return "mocked llm response", nil
}

// MockCache implements vectorDB.SemanticCache. Saved answers are served back for the
// generation they were saved with unless OnGetCachedAnswer overrides the lookup.
type MockCache struct {
	OnGetCachedAnswer func(ctx context.Context, queryVector []float32, generation string) (string, bool, error)
	mu                sync.Mutex
	answers           map[string]string
	saved             chan string
}

func NewMockCache() *MockCache {
	return &MockCache{answers: map[string]string{}, saved: make(chan string, 1)}
}

func (m *MockCache) GetCachedAnswer(ctx context.Context, v []float32, generation string) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v, generation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.answers[generation]
	return a, ok, nil
}

func (m *MockCache) SaveToCache(ctx context.Context, id string, v []float32, a string, generation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[generation] = a
	select {
	case m.saved <- a:
	default:
	}
	return nil
}
