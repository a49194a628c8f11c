package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/data/redisStore"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

const jobKeyPrefix = "job:"

// RedisJobStore keeps every job as JSON under job:<id> with config.RedisJobStoreTTL.
type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func JobKey(id string) string {
	return jobKeyPrefix + id
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, JobKey(job.Id), data, config.RedisJobStoreTTL); err != nil {
		return err
	}
	s.logger.WithTrace(ctx).Debug("Saved job", "jobId", job.Id, "status", job.Status, "step", job.CurrentStep)
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	val, err := s.store.Get(ctx, JobKey(jobId))
	switch {
	case s.store.IsNil(err):
		return job, false
	case err != nil:
		s.logger.WithTrace(ctx).Error("Failed to read job", "jobId", jobId, "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		s.logger.WithTrace(ctx).Error("Stored job is not valid json", "jobId", jobId, "error", err)
		return jobModel.Job{}, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, JobKey(jobID)); err != nil {
		s.logger.WithTrace(ctx).Error("Error deleting job", "jobId", jobID, "error", err)
	}
}
