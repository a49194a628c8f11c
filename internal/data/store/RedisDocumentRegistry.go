package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/akolanti/RegGuru/internal/data/redisStore"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

const documentsKey = "uploaded_documents"

// RedisDocumentRegistry stores one hash field per content hash. HSETNX makes
// registration atomic across API replicas.
type RedisDocumentRegistry struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisDocumentRegistry(store *redisStore.Store) *RedisDocumentRegistry {
	return &RedisDocumentRegistry{
		store:  store,
		logger: logger_i.NewLogger("DocumentRegistry"),
	}
}

func (r *RedisDocumentRegistry) HasHash(ctx context.Context, hash string) (bool, error) {
	return r.store.HashFieldExists(ctx, documentsKey, hash)
}

func (r *RedisDocumentRegistry) Register(ctx context.Context, doc jobModel.UploadedDocument) error {
	log := r.logger.WithTrace(ctx).With("file", doc.FileName, "hash", doc.Hash)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	added, err := r.store.HashSetIfAbsent(ctx, documentsKey, doc.Hash, data)
	if err != nil {
		log.Error("Failed to register document", "error", err)
		return err
	}
	if !added {
		return fmt.Errorf("%w: %s", ragErrors.ErrDuplicateDocument, doc.FileName)
	}
	log.Debug("Registered document")
	return nil
}

func (r *RedisDocumentRegistry) List(ctx context.Context) ([]jobModel.UploadedDocument, error) {
	values, err := r.store.HashValues(ctx, documentsKey)
	if err != nil {
		return nil, err
	}
	docs := make([]jobModel.UploadedDocument, 0, len(values))
	for _, v := range values {
		var doc jobModel.UploadedDocument
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			r.logger.Warn("Skipping unreadable registry entry", "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadTime.Before(docs[j].UploadTime)
	})
	return docs, nil
}
