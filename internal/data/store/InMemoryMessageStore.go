package store

import (
	"context"
	"sync"

	"github.com/akolanti/RegGuru/internal/domain/jobModel"
)

type InMemoryMessageStore struct {
	lock    *sync.RWMutex
	queries []jobModel.QueryRecord
}

func InitInMemoryMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		lock: new(sync.RWMutex),
	}
}

func (s *InMemoryMessageStore) SaveQuery(ctx context.Context, record jobModel.QueryRecord) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.queries = append(s.queries, record)
	inMemLogger.WithTrace(ctx).Debug("Saved query to message store", "count", len(s.queries))
	return nil
}

func (s *InMemoryMessageStore) GetQueries(ctx context.Context) ([]jobModel.QueryRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]jobModel.QueryRecord, len(s.queries))
	copy(out, s.queries)
	return out, nil
}
