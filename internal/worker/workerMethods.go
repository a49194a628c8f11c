package worker

import (
	"context"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	jobmodel "github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobTimeout)
	defer cancel()
	log := logger.WithTrace(ctx).With("job Id", job.Id)
	log.Debug("Processing job", "type", job.JobType)

	job.Status = jobmodel.JobStatusRunning
	saveJobState(ctx, job, log)

	if job.JobType == jobmodel.JobTypeIngest {
		job = ingestDocument(ctx, job, log)
	} else {
		job.CurrentStep = jobmodel.UserQueryInit
		job = _ragService.ProcessRequest(ctx, job)
	}

	job.EndTime = time.Now()
	if job.Status != jobmodel.JobStatusError {
		job.Status = jobmodel.JobStatusComplete
	}
	saveJobState(ctx, job, log)
}

// finishWorker runs after the worker was taken off currentWorkerCount.
func finishWorker(reason string, remaining int64) {
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason, "workers", remaining)
	workerWaitGroup.Done()
}

// ingestDocument indexes the uploaded file and records its hash once it is searchable.
func ingestDocument(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) jobmodel.Job {
	job.CurrentStep = jobmodel.IngestInit
	job = _ragService.IngestDocument(ctx, job)
	if job.Status == jobmodel.JobStatusError || _jobService.Documents == nil {
		return job
	}

	doc := jobmodel.UploadedDocument{
		FileName:   job.JobPayload.IngestFileName,
		Hash:       job.JobPayload.FileHash,
		UploadTime: time.Now().UTC(),
	}
	if err := _jobService.Documents.Register(ctx, doc); err != nil {
		log.Warn("Failed to register uploaded document", "file", doc.FileName, "error", err)
	}
	return job
}

func saveJobState(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to update job state", "status", job.Status, "err", err)
	}
}
