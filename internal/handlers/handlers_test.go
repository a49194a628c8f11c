package handlers

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/RegGuru/internal/api"
	"github.com/akolanti/RegGuru/internal/data/store"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/job"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	service  *job.Service
	registry *store.InMemoryDocumentRegistry
	dir      string
}

func setup(t *testing.T) testEnv {
	t.Helper()
	registry := store.InitInMemoryDocumentRegistry()
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          store.InitInMemoryJobStore(),
		Documents:         registry,
		Messages:          store.InitInMemoryMessageStore(),
	})
	InitJobHandler(service)

	dir := t.TempDir()
	prev := uploadDirectory
	uploadDirectory = dir
	t.Cleanup(func() { uploadDirectory = prev })
	return testEnv{service: service, registry: registry, dir: dir}
}

func uploadRequest(t *testing.T, field, name string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_document", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.JobResponse {
	t.Helper()
	var resp api.JobResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp
}

func TestChatHandler_QueuesQuery(t *testing.T) {
	env := setup(t)
	rr := httptest.NewRecorder()
	ChatHandler(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":{"text":"What is GDPR?"}}`)))

	require.Equal(t, http.StatusAccepted, rr.Code)
	var init api.InitJobResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&init))
	assert.Equal(t, "status/"+init.Id, init.StatusURL)

	queued := <-env.service.JobChannel
	assert.Equal(t, init.Id, queued.Id)
	assert.Equal(t, jobModel.JobTypeQuery, queued.JobType)
	assert.Equal(t, "What is GDPR?", queued.JobPayload.Question)

	stored, ok := env.service.JobStore.GetJob(context.Background(), init.Id)
	require.True(t, ok)
	assert.Equal(t, jobModel.JobStatusQueued, stored.Status)
}

func TestChatHandler_RejectsEmptyMessage(t *testing.T) {
	setup(t)
	for _, body := range []string{`{"message":{"text":"   "}}`, `{}`} {
		rr := httptest.NewRecorder()
		ChatHandler(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Empty message", decodeError(t, rr).Error.Message)
	}

	rr := httptest.NewRecorder()
	ChatHandler(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPostUploadHandler_QueuesIngest(t *testing.T) {
	env := setup(t)
	content := []byte("Article 17. Right to erasure.")
	sum := md5.Sum(content)
	hash := hex.EncodeToString(sum[:])

	rr := httptest.NewRecorder()
	PostUploadHandler(rr, uploadRequest(t, "file", "gdpr.TXT", content))
	require.Equal(t, http.StatusAccepted, rr.Code)

	queued := <-env.service.JobChannel
	assert.Equal(t, jobModel.JobTypeIngest, queued.JobType)
	assert.Equal(t, "gdpr.TXT", queued.JobPayload.IngestFileName)
	assert.Equal(t, hash, queued.JobPayload.FileHash)
	assert.Equal(t, filepath.Join(env.dir, hash+".txt"), queued.JobPayload.IngestURL)

	stored, err := os.ReadFile(queued.JobPayload.IngestURL)
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	// uploads always wake the dispatcher
	assert.Len(t, env.service.DispatcherChannel, 1)
}

func TestPostUploadHandler_RejectsKnownHash(t *testing.T) {
	env := setup(t)
	content := []byte("already indexed")
	sum := md5.Sum(content)
	require.NoError(t, env.registry.Register(context.Background(), jobModel.UploadedDocument{
		FileName: "old.txt", Hash: hex.EncodeToString(sum[:]), UploadTime: time.Now(),
	}))

	rr := httptest.NewRecorder()
	PostUploadHandler(rr, uploadRequest(t, "file", "new-name.txt", content))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "File already exists in database", decodeError(t, rr).Error.Message)
	assert.Empty(t, env.service.JobChannel)

	left, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestPostUploadHandler_RejectsSameContentInFlight(t *testing.T) {
	env := setup(t)
	content := []byte("queued twice")

	rr := httptest.NewRecorder()
	PostUploadHandler(rr, uploadRequest(t, "file", "a.txt", content))
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	PostUploadHandler(rr, uploadRequest(t, "file", "b.txt", content))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Len(t, env.service.JobChannel, 1)
}

func TestPostUploadHandler_BadRequests(t *testing.T) {
	setup(t)

	rr := httptest.NewRecorder()
	PostUploadHandler(rr, uploadRequest(t, "document", "a.txt", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No file uploaded", decodeError(t, rr).Error.Message)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload_document", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	PostUploadHandler(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetStatusHandler(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	require.NoError(t, env.service.JobStore.SaveJob(ctx, jobModel.Job{
		Id:         "job-1",
		JobType:    jobModel.JobTypeQuery,
		Status:     jobModel.JobStatusComplete,
		JobPayload: jobModel.JobPayload{Question: "q", Answer: "a"},
	}))

	router := chi.NewRouter()
	router.Get("/status/{id}", GetStatusHandler)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status/job-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp api.JobResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "COMPLETE", resp.Result.Status)
	require.NotNil(t, resp.Result.RAGExternalResponse)
	assert.Equal(t, "a", resp.Result.RAGExternalResponse.Answer)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Job not found", decodeError(t, rr).Error.Message)
}

func TestGetDocumentsHandler(t *testing.T) {
	env := setup(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.registry.Register(context.Background(), jobModel.UploadedDocument{FileName: "b.pdf", Hash: "h2", UploadTime: base.Add(time.Hour)}))
	require.NoError(t, env.registry.Register(context.Background(), jobModel.UploadedDocument{FileName: "a.pdf", Hash: "h1", UploadTime: base}))

	rr := httptest.NewRecorder()
	GetDocumentsHandler(rr, httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var docs []api.UploadedDocument
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "a.pdf", docs[0].FileName)
	assert.Equal(t, "h2", docs[1].Hash)
}

func TestSaveQueryHandler_AppendsHistory(t *testing.T) {
	setup(t)

	for _, body := range []string{
		`{"question":"What is GDPR?","answer":"A regulation.","document":"gdpr.pdf"}`,
		`{"question":"  What is the AI Act?  ","answer":"Another regulation."}`,
	} {
		rr := httptest.NewRecorder()
		SaveQueryHandler(rr, httptest.NewRequest(http.MethodPost, "/save_query", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rr.Code)
		var status api.StatusResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
		assert.Equal(t, "success", status.Status)
	}

	rr := httptest.NewRecorder()
	GetQueriesHandler(rr, httptest.NewRequest(http.MethodGet, "/queries", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var queries []api.SavedQuery
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&queries))
	require.Len(t, queries, 2)
	assert.Equal(t, "What is GDPR?", queries[0].Question)
	assert.Equal(t, "gdpr.pdf", queries[0].Document)
	assert.Equal(t, "What is the AI Act?", queries[1].Question)
	assert.Equal(t, "Current Document", queries[1].Document)
	assert.False(t, queries[1].Timestamp.IsZero())
}

func TestSaveQueryHandler_BadRequests(t *testing.T) {
	setup(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{"question":`, "Bad Request"},
		{"empty question", `{"question":"   ","answer":"x"}`, "Empty question"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			SaveQueryHandler(rr, httptest.NewRequest(http.MethodPost, "/save_query", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.want, decodeError(t, rr).Error.Message)
		})
	}

	rr := httptest.NewRecorder()
	GetQueriesHandler(rr, httptest.NewRequest(http.MethodGet, "/queries", nil))
	var queries []api.SavedQuery
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&queries))
	assert.Empty(t, queries)
}
