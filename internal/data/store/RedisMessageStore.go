package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/data/redisStore"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

// RedisMessageStore keeps saved queries as a JSON list under config.QueryHistoryKey.
type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) SaveQuery(ctx context.Context, record jobModel.QueryRecord) error {
	log := s.logger.WithTrace(ctx)
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.store.ListPush(ctx, config.QueryHistoryKey, data); err != nil {
		log.Error("Error saving query", "error", err)
		return err
	}
	log.Debug("Saved query", "document", record.Document)
	return nil
}

func (s *RedisMessageStore) GetQueries(ctx context.Context) ([]jobModel.QueryRecord, error) {
	log := s.logger.WithTrace(ctx)
	values, err := s.store.ListGetAll(ctx, config.QueryHistoryKey)
	if err != nil {
		log.Error("Error getting query history", "error", err)
		return nil, err
	}

	records := make([]jobModel.QueryRecord, 0, len(values))
	for i, v := range values {
		var record jobModel.QueryRecord
		if err := json.Unmarshal([]byte(v), &record); err != nil {
			// one bad entry should not hide the rest of the history
			log.Warn("Skipping unreadable saved query", "index", i, "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
