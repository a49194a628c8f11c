package rag

import (
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("Job step", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error) jobModel.Job {
	code, message := ragErrors.UserMessage(err)
	s.logger.Error(message, "job", job.Id, "error", err)

	job.Error = jobModel.JobError{
		Code:    code,
		Message: message,
		Retry:   isRetryable(err),
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}
