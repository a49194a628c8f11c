package job

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var logger = logger_i.NewLogger("JobService")

// Service is shared by the handlers and the worker pool.
// JobStore holds job state, Documents the upload registry, Messages the saved query history.
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	Documents         jobModel.DocumentRegistry
	Messages          jobModel.MessageStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	Documents         jobModel.DocumentRegistry
	Messages          jobModel.MessageStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		Documents:         cfg.Documents,
		Messages:          cfg.Messages,
	}
}

// Submit stores the queued job, hands it to the workers and asks the dispatcher for a new
// worker on every RequestsPerNewWorkerCount-th job and on every upload. Uploads embed whole
// documents and can hold a worker for minutes; idle workers retire on their own.
func (s *Service) Submit(ctx context.Context, j jobModel.Job) {
	log := logger.WithTrace(ctx).With("job id", j.Id, "type", j.JobType)

	// queued state is visible to /status before a worker picks the job up
	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Failed to save queued job", "error", err)
	}
	metrics.IncrementJobsInQueue()

	s.JobChannel <- j //blocking send so a full buffer pushes back on the caller
	log.Info("Queued job")

	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 || j.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		log.Debug("Signalling dispatcher", "request count", count)
		s.DispatcherChannel <- true
	}
}
