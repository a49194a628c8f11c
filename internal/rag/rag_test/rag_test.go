package rag_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB/localIndex"
)

func seededIndex(t *testing.T) *vectorDB.Index {
	t.Helper()
	idx := vectorDB.NewIndex(2)
	err := idx.Add(
		commonModels.ChunkRecord{Id: "a_0", Text: "Article 5 lists the principles of processing.", Vector: []float32{1, 0}},
		commonModels.ChunkRecord{Id: "a_1", Text: "Article 99 sets penalties.", Vector: []float32{0, 1}},
	)
	if err != nil {
		t.Fatal(err)
	}
	idx.SetGeneration("generation-1")
	return idx
}

func TestAnswer_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		question       string
		setupMocks     func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache)
		expectedAnswer string
		expectedErr    error
	}{
		{
			name:     "Success_Full_Flow",
			question: "What are the principles?",
			setupMocks: func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {
				s.Index = seededIndex(t)
				l.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
					return "final answer", nil
				}
			},
			expectedAnswer: "final answer",
		},
		{
			name:     "Success_Cache_Hit",
			question: "What are the principles?",
			setupMocks: func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {
				s.Index = seededIndex(t)
				c.OnGetCachedAnswer = func(ctx context.Context, emb []float32, generation string) (string, bool, error) {
					return "cached answer", true, nil
				}
				l.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
					t.Error("LLM called on cache hit")
					return "", nil
				}
			},
			expectedAnswer: "cached answer",
		},
		{
			name:     "Cache_Failure_Is_Ignored",
			question: "What are the principles?",
			setupMocks: func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {
				s.Index = seededIndex(t)
				c.OnGetCachedAnswer = func(ctx context.Context, emb []float32, generation string) (string, bool, error) {
					return "", false, errors.New("qdrant down")
				}
			},
			expectedAnswer: "mocked llm response",
		},
		{
			name:        "Failure_Empty_Question",
			question:    "   ",
			setupMocks:  func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {},
			expectedErr: ragErrors.ErrEmptyQuery,
		},
		{
			name:        "Failure_No_Index",
			question:    "Anything?",
			setupMocks:  func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {},
			expectedErr: ragErrors.ErrIndexNotFound,
		},
		{
			name:     "Failure_Corrupt_Index",
			question: "Anything?",
			setupMocks: func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {
				s.Index = seededIndex(t)
				s.OnLoad = func() (*vectorDB.Index, error) { return nil, ragErrors.ErrCorruptIndex }
			},
			expectedErr: ragErrors.ErrCorruptIndex,
		},
		{
			name:     "Failure_Embedding",
			question: "Anything?",
			setupMocks: func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {
				s.Index = seededIndex(t)
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedErr: ragErrors.ErrEmbedding,
		},
		{
			name:     "Failure_LLM_Generation",
			question: "Anything?",
			setupMocks: func(t *testing.T, s *MockIndexStore, e *MockEmbedder, l *MockLLM, c *MockCache) {
				s.Index = seededIndex(t)
				l.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedErr: ragErrors.ErrGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := &MockIndexStore{}
			mEmbed := &MockEmbedder{}
			mLLM := &MockLLM{}
			mCache := NewMockCache()
			tt.setupMocks(t, mStore, mEmbed, mLLM, mCache)

			s := rag.NewService(mStore, mLLM, mEmbed, mCache)
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

			answer, err := s.Answer(ctx, tt.question)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("error got %v, want %v", err, tt.expectedErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if answer != tt.expectedAnswer {
				t.Errorf("Answer got %q, want %q", answer, tt.expectedAnswer)
			}
		})
	}
}

func TestAnswer_PromptCarriesRankedContext(t *testing.T) {
	store := &MockIndexStore{Index: seededIndex(t)}
	mLLM := &MockLLM{}
	s := rag.NewService(store, mLLM, &MockEmbedder{}, nil)

	if _, err := s.Answer(context.Background(), "Which principles apply?"); err != nil {
		t.Fatal(err)
	}

	prompt := mLLM.LastPrompt
	if !strings.HasPrefix(prompt, "Answer the question in a concise manner based on the following context:") {
		t.Errorf("prompt does not use the answer template: %q", prompt)
	}
	first := strings.Index(prompt, "Article 5")
	second := strings.Index(prompt, "Article 99")
	if first < 0 || second < 0 || first > second {
		t.Errorf("context not in similarity order: %q", prompt)
	}
	if !strings.Contains(prompt, "Question: Which principles apply?") {
		t.Errorf("question missing from prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "If the context does not contain the answer, use other sources.") {
		t.Errorf("fallback instruction missing: %q", prompt)
	}
}

func TestAnswer_SavesToCache(t *testing.T) {
	cache := NewMockCache()
	s := rag.NewService(&MockIndexStore{Index: seededIndex(t)}, &MockLLM{}, &MockEmbedder{}, cache)

	if _, err := s.Answer(context.Background(), "question"); err != nil {
		t.Fatal(err)
	}

	select {
	case saved := <-cache.saved:
		if saved != "mocked llm response" {
			t.Errorf("cached %q", saved)
		}
	case <-time.After(time.Second):
		t.Error("answer was not saved to cache")
	}
}

func TestAnswer_CacheFollowsIndexGeneration(t *testing.T) {
	cache := NewMockCache()
	llm := &MockLLM{}
	calls := 0
	llm.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
		calls++
		return fmt.Sprintf("answer %d", calls), nil
	}
	store := &MockIndexStore{Index: seededIndex(t)}
	s := rag.NewService(store, llm, &MockEmbedder{}, cache)

	ask := func() string {
		t.Helper()
		answer, err := s.Answer(context.Background(), "question")
		if err != nil {
			t.Fatal(err)
		}
		return answer
	}
	waitSaved := func() {
		t.Helper()
		select {
		case <-cache.saved:
		case <-time.After(time.Second):
			t.Fatal("answer was not saved to cache")
		}
	}

	if got := ask(); got != "answer 1" {
		t.Fatalf("first answer = %q", got)
	}
	waitSaved()
	if got := ask(); got != "answer 1" || calls != 1 {
		t.Fatalf("same generation should be served from cache, got %q after %d llm calls", got, calls)
	}

	// an upload persists a new generation
	store.Index.SetGeneration("generation-2")
	if got := ask(); got != "answer 2" || calls != 2 {
		t.Fatalf("new generation must not reuse the old answer, got %q after %d llm calls", got, calls)
	}
}

func TestAnswer_UnpersistedIndexSkipsCache(t *testing.T) {
	cache := NewMockCache()
	cache.OnGetCachedAnswer = func(ctx context.Context, v []float32, generation string) (string, bool, error) {
		t.Error("cache consulted without a generation")
		return "", false, nil
	}
	idx := seededIndex(t)
	idx.SetGeneration("")
	s := rag.NewService(&MockIndexStore{Index: idx}, &MockLLM{}, &MockEmbedder{}, cache)

	if _, err := s.Answer(context.Background(), "question"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-cache.saved:
		t.Error("answer cached without a generation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBuildPrompt_BoundsContext(t *testing.T) {
	long := strings.Repeat("x", config.MaxContextChars+500)
	prompt := rag.BuildPrompt("q", []commonModels.ScoredChunk{
		{Record: commonModels.ChunkRecord{Text: long}},
		{Record: commonModels.ChunkRecord{Text: "never included"}},
	})
	if strings.Contains(prompt, "never included") {
		t.Error("context exceeded the limit")
	}
	if !strings.Contains(prompt, strings.Repeat("x", config.MaxContextChars)) ||
		strings.Contains(prompt, strings.Repeat("x", config.MaxContextChars+1)) {
		t.Errorf("first chunk should be truncated to %d chars", config.MaxContextChars)
	}
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		store          func(t *testing.T) *MockIndexStore
		question       string
		expectedStatus jobModel.JobStatus
		expectedCode   int
		expectedMsg    string
		expectedAnswer string
	}{
		{
			name:           "Success",
			store:          func(t *testing.T) *MockIndexStore { return &MockIndexStore{Index: seededIndex(t)} },
			question:       "test question",
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "mocked llm response",
		},
		{
			name:           "No_Documents",
			store:          func(t *testing.T) *MockIndexStore { return &MockIndexStore{} },
			question:       "test question",
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusNotFound,
			expectedMsg:    "No documents uploaded yet",
		},
		{
			name:           "Empty_Message",
			store:          func(t *testing.T) *MockIndexStore { return &MockIndexStore{Index: seededIndex(t)} },
			question:       "",
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusBadRequest,
			expectedMsg:    "Empty message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rag.NewService(tt.store(t), &MockLLM{}, &MockEmbedder{}, nil)
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:         "test-job",
				Status:     jobModel.JobStatusQueued,
				JobPayload: jobModel.JobPayload{Question: tt.question},
			}

			result := s.ProcessRequest(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}
			if tt.expectedCode != 0 && (result.Error.Code != tt.expectedCode || result.Error.Message != tt.expectedMsg) {
				t.Errorf("Error got %d %q, want %d %q", result.Error.Code, result.Error.Message, tt.expectedCode, tt.expectedMsg)
			}
		})
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		fileName       string
		content        string
		embedder       *MockEmbedder
		expectedStatus jobModel.JobStatus
		expectedCode   int
	}{
		{
			name:           "Ingestion_Success",
			fileName:       "gdpr.txt",
			content:        "Article 5. Principles relating to processing of personal data.",
			embedder:       &MockEmbedder{},
			expectedStatus: jobModel.JobStatusQueued,
		},
		{
			name:           "Unsupported_Type",
			fileName:       "scan.png",
			content:        "binary",
			embedder:       &MockEmbedder{},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusUnsupportedMediaType,
		},
		{
			name:     "Embedding_Failure",
			fileName: "gdpr.txt",
			content:  "Article 5.",
			embedder: &MockEmbedder{OnBatchEmbedding: func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
				return nil, errors.New("quota")
			}},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := localIndex.NewStore(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			upload := filepath.Join(t.TempDir(), tt.fileName)
			if err := os.WriteFile(upload, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			s := rag.NewService(store, &MockLLM{}, tt.embedder, nil)
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
			job := jobModel.Job{
				Id:     "ingest-job-1",
				Status: jobModel.JobStatusQueued,
				JobPayload: jobModel.JobPayload{
					IngestFileName: tt.fileName,
					IngestURL:      upload,
				},
			}

			result := s.IngestDocument(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedCode != 0 && result.Error.Code != tt.expectedCode {
				t.Errorf("Error Code got %d, want %d", result.Error.Code, tt.expectedCode)
			}
			if _, err := os.Stat(upload); !os.IsNotExist(err) {
				t.Error("uploaded temp file was not removed")
			}
			if tt.expectedCode == 0 && !store.Exists() {
				t.Error("index was not persisted")
			}
		})
	}
}
