package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
)

// InMemoryDocumentRegistry is the registry used when Redis is unavailable.
type InMemoryDocumentRegistry struct {
	lock   *sync.RWMutex
	hashes map[string]struct{}
	docs   []jobModel.UploadedDocument
}

func InitInMemoryDocumentRegistry() *InMemoryDocumentRegistry {
	return &InMemoryDocumentRegistry{
		lock:   new(sync.RWMutex),
		hashes: make(map[string]struct{}),
	}
}

func (r *InMemoryDocumentRegistry) HasHash(ctx context.Context, hash string) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.hashes[hash]
	return ok, nil
}

func (r *InMemoryDocumentRegistry) Register(ctx context.Context, doc jobModel.UploadedDocument) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.hashes[doc.Hash]; ok {
		return fmt.Errorf("%w: %s", ragErrors.ErrDuplicateDocument, doc.FileName)
	}
	r.hashes[doc.Hash] = struct{}{}
	r.docs = append(r.docs, doc)
	inMemLogger.WithTrace(ctx).Debug("Registered document", "file", doc.FileName, "hash", doc.Hash)
	return nil
}

func (r *InMemoryDocumentRegistry) List(ctx context.Context) ([]jobModel.UploadedDocument, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	out := make([]jobModel.UploadedDocument, len(r.docs))
	copy(out, r.docs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadTime.Before(out[j].UploadTime)
	})
	return out, nil
}
