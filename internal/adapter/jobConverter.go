package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/RegGuru/internal/api"
	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id), //pass "status/job.Id"
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{Status: string(job.Status)}
	if job.JobType == jobModel.JobTypeIngest {
		result.Upload = toUploadResponse(job)
	} else {
		result.RAGExternalResponse = ToRAGExternalStatus(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" {
		return nil
	}

	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
	}
}

func toUploadResponse(job jobModel.Job) *api.UploadResponse {
	if job.JobPayload.Succeeded == 0 {
		return nil
	}
	return &api.UploadResponse{
		FileName: job.JobPayload.IngestFileName,
		Message:  "Document processed successfully",
	}
}

func ToDocumentList(docs []jobModel.UploadedDocument) []api.UploadedDocument {
	out := make([]api.UploadedDocument, 0, len(docs))
	for _, d := range docs {
		out = append(out, api.UploadedDocument{FileName: d.FileName, Hash: d.Hash, UploadTime: d.UploadTime})
	}
	return out
}

func ToQueryRecord(req api.SaveQueryRequest, now time.Time) jobModel.QueryRecord {
	document := req.Document
	if document == "" {
		document = config.DefaultQueryDocument
	}
	return jobModel.QueryRecord{
		Question:  req.Question,
		Answer:    req.Answer,
		Timestamp: now,
		Document:  document,
	}
}

func ToQueryList(records []jobModel.QueryRecord) []api.SavedQuery {
	out := make([]api.SavedQuery, 0, len(records))
	for _, r := range records {
		out = append(out, api.SavedQuery{Question: r.Question, Answer: r.Answer, Timestamp: r.Timestamp, Document: r.Document})
	}
	return out
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
