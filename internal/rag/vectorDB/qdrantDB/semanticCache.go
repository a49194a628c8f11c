package qdrantDB

import (
	"context"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/qdrant/go-client/qdrant"
)

const (
	payloadAnswer     = "answer"
	payloadGeneration = "index_generation"
	payloadTimestamp  = "timestamp"
)

// GetCachedAnswer returns the closest answer cached for this index generation.
// Answers generated against an older index are never served.
func (db *ClientHolder) GetCachedAnswer(ctx context.Context, queryVector []float32, generation string) (string, bool, error) {
	log := logger.WithTrace(ctx)

	searchResult, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(payloadGeneration, generation)},
		},
		Limit:       qdrant.PtrOf(uint64(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Cache query failed", "error", err)
		return "", false, err
	}
	if len(searchResult) == 0 {
		return "", false, nil
	}

	log.Debug("Closest cached answer", "semantic similarity score", searchResult[0].Score)
	answer, ok := cacheHit(searchResult[0], generation)
	if ok {
		log.Info("Semantic cache hit")
	}
	return answer, ok, nil
}

// cacheHit accepts a point only above the similarity cutoff and from the same generation.
func cacheHit(point *qdrant.ScoredPoint, generation string) (string, bool) {
	if point == nil || point.GetScore() < config.CacheSimilarityCutoff {
		return "", false
	}
	payload := point.GetPayload()
	if payload[payloadGeneration].GetStringValue() != generation {
		return "", false
	}
	answer := payload[payloadAnswer].GetStringValue()
	return answer, answer != ""
}

func (db *ClientHolder) SaveToCache(ctx context.Context, id string, vector []float32, answer string, generation string) error {
	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadAnswer:     answer,
					payloadGeneration: generation,
					payloadTimestamp:  time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		logger.WithTrace(ctx).Error("Saving answer to cache failed", "error", err)
	}
	return err
}
