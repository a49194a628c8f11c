package handlers

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/RegGuru/internal/adapter"
	"github.com/akolanti/RegGuru/internal/adapter/utils"
	"github.com/akolanti/RegGuru/internal/api"
	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

type newJobData struct {
	id               string
	message          string
	traceId          string
	isDocumentIngest bool
	documentName     string
	documentSource   string
	documentHash     string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChatHandler godoc
// @Summary      Ask a question about the uploaded documents
// @Description  Queues a retrieval-augmented query and returns a job ID to poll. A query without any uploaded document fails with code 404 inside the job.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Question text"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Empty message"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request) {
		return
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the chat handler reader", "error", err)
		}
	}(request.Body)

	var requestData api.ChatRequest
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil {
		logRH.Warn("Bad chat request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	question := strings.TrimSpace(requestData.Message.Text)
	if question == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Empty message")
		return
	}

	queueJob(w, request, newJobData{message: question})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a chat or upload job.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Current status of the job"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceID(r))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostUploadHandler godoc
// @Summary      Upload a document
// @Description  Receives a PDF, DOCX or TXT file, rejects content that was already indexed and queues an upload job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The document to index"
// @Success      202  {object}  api.InitJobResponse  "Accepted - returns job id"
// @Failure      400  {object}  api.JobResponse      "No file uploaded, empty file name or file too large"
// @Failure      409  {object}  api.JobResponse      "File already exists in database"
// @Failure      500  {object}  api.JobResponse      "Storage error"
// @Router       /upload_document [post]
func PostUploadHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	log := logRH.WithTrace(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}
	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "No file uploaded")
		return
	}
	defer fileReader.Close()
	fileName := filepath.Base(fileMetadata.Filename)
	if fileMetadata.Filename == "" || fileName == "." || fileName == string(filepath.Separator) {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Empty file name")
		return
	}

	targetDir, err := getTargetDirectory()
	if err != nil {
		log.Error("Couldn't get target directory", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, fileName, "Storage error")
		return
	}

	storedPath, hash, err := storeUpload(targetDir, fileName, fileReader)
	if errors.Is(err, errUploadInFlight) {
		WriteErrorResponse(w, http.StatusConflict, fileName, "File already exists in database")
		return
	}
	if err != nil {
		log.Error("Failed to store upload", "file", fileName, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, fileName, "Storage error")
		return
	}

	known, err := IsKnownDocument(r.Context(), hash)
	if err != nil {
		log.Error("Document registry unavailable", "error", err)
		_ = os.Remove(storedPath)
		WriteErrorResponse(w, http.StatusInternalServerError, fileName, "Storage error")
		return
	}
	if known {
		log.Info("Duplicate upload rejected", "file", fileName, "hash", hash)
		_ = os.Remove(storedPath)
		WriteErrorResponse(w, http.StatusConflict, fileName, "File already exists in database")
		return
	}

	queueJob(w, r, newJobData{
		isDocumentIngest: true,
		documentName:     fileName,
		documentSource:   storedPath,
		documentHash:     hash,
	})
}

// GetDocumentsHandler godoc
// @Summary      List uploaded documents
// @Tags         Ingestion
// @Produce      json
// @Success      200  {array}   api.UploadedDocument
// @Failure      500  {object}  api.JobResponse
// @Router       /documents [get]
func GetDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	docs, err := ListDocuments(r.Context())
	if err != nil {
		logRH.WithTrace(r.Context()).Error("Failed to list documents", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentList(docs))
}

// SaveQueryHandler godoc
// @Summary      Save a question and its answer
// @Description  Appends the pair to the query history. The document defaults to "Current Document".
// @Tags         History
// @Accept       json
// @Produce      json
// @Param        request  body      api.SaveQueryRequest  true  "Question, answer and document"
// @Success      200      {object}  api.StatusResponse
// @Failure      400      {object}  api.JobResponse  "Empty question"
// @Failure      500      {object}  api.JobResponse  "Storage error"
// @Router       /save_query [post]
func SaveQueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	defer r.Body.Close()

	var requestData api.SaveQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	requestData.Question = strings.TrimSpace(requestData.Question)
	if requestData.Question == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Empty question")
		return
	}

	if err := SaveQuery(r.Context(), adapter.ToQueryRecord(requestData, time.Now().UTC())); err != nil {
		logRH.WithTrace(r.Context()).Error("Failed to save query", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Storage error")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.StatusResponse{Status: "success"})
}

// GetQueriesHandler godoc
// @Summary      List saved queries
// @Tags         History
// @Produce      json
// @Success      200  {array}   api.SavedQuery
// @Failure      500  {object}  api.JobResponse
// @Router       /queries [get]
func GetQueriesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	records, err := GetQueries(r.Context())
	if err != nil {
		logRH.WithTrace(r.Context()).Error("Failed to list queries", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryList(records))
}

var errUploadInFlight = errors.New("same content is already queued")

// storeUpload streams the upload to <dir>/<md5><ext> and returns the path and hash.
// An existing file under that name means the same content is still being processed.
func storeUpload(dir, fileName string, src io.Reader) (string, string, error) {
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return "", "", err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	hasher := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), src); err != nil {
		_ = tmp.Close()
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		return "", "", err
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	final := filepath.Join(dir, hash+strings.ToLower(filepath.Ext(fileName)))
	if _, err := os.Stat(final); err == nil {
		return "", "", errUploadInFlight
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", "", err
	}
	return final, hash, nil
}
