package rag

import (
	"context"
	"os"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/internal/rag/embedding"
	"github.com/akolanti/RegGuru/internal/rag/ingest"
	"github.com/akolanti/RegGuru/internal/rag/llm"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

// Service is what the worker pool, the CLI and the MCP server call.
// The concrete service stays private so callers never reach the index or the providers directly.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	Answer(ctx context.Context, question string) (string, error)
	Upload(ctx context.Context, paths []string) ingest.UploadResult
}

type service struct {
	store       vectorDB.IndexStore
	uploader    *ingest.Uploader
	llmProvider llm.Provider
	embedder    embedding.Embedder
	cache       vectorDB.SemanticCache
	logger      *logger_i.Logger
}

// NewService wires the index store and providers. cache may be nil.
func NewService(store vectorDB.IndexStore, llm llm.Provider, em embedding.Embedder, cache vectorDB.SemanticCache) Service {
	return &service{
		store:       store,
		uploader:    ingest.NewUploader(store, em, ""),
		llmProvider: llm,
		embedder:    em,
		cache:       cache,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("JobId", jobt.Id)

	processContext, cancel := context.WithTimeout(ctx, config.QueryTimeout)
	defer cancel()

	jobt = logOutput(jobt, jobModel.RAGCall, log)
	answer, err := s.Answer(processContext, jobt.JobPayload.Question)
	if err != nil {
		return s.jobError(jobt, err)
	}
	return returnOutput(jobt, answer)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("JobId", job.Id)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	job = logOutput(job, jobModel.IngestProcessing, log)
	path := job.JobPayload.IngestURL
	_, err := s.uploader.UploadFile(ctx, path, job.JobPayload.IngestFileName)
	metrics.CaptureUploadOutcome(err == nil)

	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		log.Warn("Error removing uploaded file", "path", path, "error", rmErr)
	}
	if err != nil {
		job.JobPayload.Failed = 1
		return s.jobError(job, err)
	}

	job.JobPayload.Succeeded = 1
	job.JobPayload.Answer = "File uploaded successfully"
	return returnOutput(job, job.JobPayload.Answer)
}

func (s *service) Upload(ctx context.Context, paths []string) ingest.UploadResult {
	return s.uploader.Upload(ctx, paths)
}

func isRetryable(err error) bool {
	code, _ := ragErrors.UserMessage(err)
	return code >= 500
}
