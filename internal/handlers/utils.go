package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akolanti/RegGuru/internal/adapter"
	"github.com/akolanti/RegGuru/internal/adapter/utils"
	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func traceID(r *http.Request) string {
	trace, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(r *http.Request) bool {
	if err := r.Context().Err(); err != nil {
		logRH.WithTrace(r.Context()).Warn("context error", "error", err, "remote", r.RemoteAddr)
		return false
	}
	return true
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// uploadDirectory is where uploads wait for their ingest job.
var uploadDirectory = config.TempDirectory

// getTargetDirectory makes sure the upload staging directory exists.
func getTargetDirectory() (string, error) {
	targetDir, err := filepath.Abs(uploadDirectory)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

func queueJob(w http.ResponseWriter, request *http.Request, newJob newJobData) {
	newJob.id = utils.GetNewUUID()
	newJob.traceId = traceID(request)
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}
