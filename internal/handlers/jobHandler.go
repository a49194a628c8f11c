package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/job"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var errNoMessageStore = errors.New("message store is not configured")

var (
	handlerInstance *JobHandler //private singleton
	logJH           = logger_i.NewLogger("JobHandler")
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	handlerInstance = &JobHandler{service: jobService}
	logJH.Info("Starting job handler")
}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id).Info("To create new job")
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// IsKnownDocument reports whether a file with this content hash was already indexed.
func IsKnownDocument(ctx context.Context, hash string) (bool, error) {
	if handlerInstance == nil || handlerInstance.service.Documents == nil {
		return false, nil
	}
	return handlerInstance.service.Documents.HasHash(ctx, hash)
}

func ListDocuments(ctx context.Context) ([]jobModel.UploadedDocument, error) {
	if handlerInstance == nil || handlerInstance.service.Documents == nil {
		return nil, nil
	}
	return handlerInstance.service.Documents.List(ctx)
}

func SaveQuery(ctx context.Context, record jobModel.QueryRecord) error {
	if handlerInstance == nil || handlerInstance.service.Messages == nil {
		return errNoMessageStore
	}
	return handlerInstance.service.Messages.SaveQuery(ctx, record)
}

func GetQueries(ctx context.Context) ([]jobModel.QueryRecord, error) {
	if handlerInstance == nil || handlerInstance.service.Messages == nil {
		return nil, nil
	}
	return handlerInstance.service.Messages.GetQueries(ctx)
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued

	if newJob.isDocumentIngest {
		_job.CurrentStep = jobModel.IngestInit
		_job.JobType = jobModel.JobTypeIngest
		_job.JobPayload.IngestFileName = newJob.documentName
		_job.JobPayload.IngestURL = newJob.documentSource
		_job.JobPayload.FileHash = newJob.documentHash
	} else {
		_job.JobType = jobModel.JobTypeQuery
		_job.JobPayload.Question = newJob.message
		_job.CurrentStep = jobModel.UserQueryInit
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	h.service.Submit(ctx, _job)
}
