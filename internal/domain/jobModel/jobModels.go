package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	UserQueryInit InternalStatus = "Init"
	RAGCall       InternalStatus = "RAG"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery  JobType = "Query"
	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`

	IngestFileName string `json:"ingest_file_name,omitempty"`
	IngestURL      string `json:"ingest_url,omitempty"`
	FileHash       string `json:"file_hash,omitempty"`
	Succeeded      int    `json:"succeeded,omitempty"`
	Failed         int    `json:"failed,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// UploadedDocument is one entry of the upload registry used for content-hash dedup.
type UploadedDocument struct {
	FileName   string    `json:"filename"`
	Hash       string    `json:"hash"`
	UploadTime time.Time `json:"upload_time"`
}

type DocumentRegistry interface {
	HasHash(ctx context.Context, hash string) (bool, error)
	Register(ctx context.Context, doc UploadedDocument) error
	List(ctx context.Context) ([]UploadedDocument, error)
}

// QueryRecord is one saved question and answer pair, in the order it was saved.
type QueryRecord struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
	Document  string    `json:"document"`
}

type MessageStore interface {
	SaveQuery(ctx context.Context, record QueryRecord) error
	GetQueries(ctx context.Context) ([]QueryRecord, error)
}
