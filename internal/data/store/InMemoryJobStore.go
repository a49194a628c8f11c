package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem Store")

// sweep expired jobs once every this many saves
const inMemSweepEvery = 100

type storedJob struct {
	job     jobModel.Job
	expires time.Time
}

// InMemoryJobStore is the fallback when Redis is down. Jobs expire after
// config.RedisJobStoreTTL like they do in Redis.
type InMemoryJobStore struct {
	mu    sync.RWMutex
	jobs  map[string]storedJob
	saves int
	ttl   time.Duration
	now   func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return NewInMemoryJobStore(config.RedisJobStoreTTL)
}

func NewInMemoryJobStore(ttl time.Duration) *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs: make(map[string]storedJob),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.jobs[job.Id] = storedJob{job: job, expires: now.Add(s.ttl)}
	s.saves++
	if s.saves%inMemSweepEvery == 0 {
		s.sweep(now)
	}
	inMemLogger.WithTrace(ctx).Debug("Saved job to store", "jobId", job.Id, "status", job.Status)
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	entry, found := s.jobs[jobId]
	s.mu.RUnlock()
	if !found || !s.now().Before(entry.expires) {
		return jobModel.Job{}, false
	}
	return entry.job, true
}

func (s *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}

// sweep must be called with mu held.
func (s *InMemoryJobStore) sweep(now time.Time) {
	for id, entry := range s.jobs {
		if !now.Before(entry.expires) {
			delete(s.jobs, id)
		}
	}
}
