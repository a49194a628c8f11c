package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"No documents uploaded yet"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string `json:"question"`
	Answer   string `json:"response"`
}

type UploadResponse struct {
	FileName string `json:"filename"`
	Message  string `json:"message"`
}

type Result struct {
	Status              string          `json:"status"`
	RAGExternalResponse *RAGResponse    `json:"rag_response,omitempty"`
	Upload              *UploadResponse `json:"upload,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type UploadedDocument struct {
	FileName   string    `json:"filename" example:"gdpr.pdf"`
	Hash       string    `json:"hash" example:"9e107d9d372bb6826bd81d3542a419d6"`
	UploadTime time.Time `json:"upload_time"`
}

type SavedQuery struct {
	Question  string    `json:"question" example:"What is the right to erasure?"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
	Document  string    `json:"document" example:"gdpr.pdf"`
}

type StatusResponse struct {
	Status string `json:"status" example:"success"`
}

// requests---------------------

type ChatMessage struct {
	Text string `json:"text" validate:"required" example:"What is the right to erasure?"`
}

type ChatRequest struct {
	Message ChatMessage `json:"message"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}

type SaveQueryRequest struct {
	Question string `json:"question" validate:"required" example:"What is the right to erasure?"`
	Answer   string `json:"answer" example:"Article 17 gives the data subject the right to obtain erasure."`
	Document string `json:"document,omitempty" example:"gdpr.pdf"`
}
