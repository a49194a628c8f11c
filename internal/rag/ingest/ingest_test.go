package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB/localIndex"
)

type mockEmbedder struct {
	batchFunc func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := m.BatchEmbedding(ctx, []string{query}, false)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	return m.batchFunc(ctx, chunks, isHuge)
}

// lengthEmbedder maps a text to a small vector derived from its content.
func lengthEmbedder() *mockEmbedder {
	return &mockEmbedder{
		batchFunc: func(ctx context.Context, ch []string, huge bool) ([][]float32, error) {
			out := make([][]float32, len(ch))
			for i, c := range ch {
				out[i] = []float32{float32(len(c)), float32(strings.Count(c, " ") + 1), 1}
			}
			return out, nil
		},
	}
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"notes.rtf", commonModels.ERR},
		{"image.png", commonModels.ERR},
		{"noextension", commonModels.ERR},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestEmbedChunksBatches(t *testing.T) {
	ctx := context.Background()
	chunks := make([]commonModels.DocChunk, 150) // 100 + 50
	for i := range chunks {
		chunks[i] = commonModels.DocChunk{Chunk: "test content", ChunkId: ChunkID("doc", i), Position: i}
	}

	callCount := 0
	emb := &mockEmbedder{
		batchFunc: func(ctx context.Context, ch []string, huge bool) ([][]float32, error) {
			callCount++
			out := make([][]float32, len(ch))
			for i := range out {
				out[i] = []float32{1, 0}
			}
			return out, nil
		},
	}

	records, err := EmbedChunks(ctx, chunks, emb, ChunkMetadata)
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if callCount != 2 {
		t.Errorf("Expected 2 embedding batches, got %d", callCount)
	}
	if len(records) != 150 || records[149].Id != "doc_149" {
		t.Errorf("unexpected records: %d", len(records))
	}
	if records[3].Metadata["position"] != "3" {
		t.Errorf("position metadata = %q", records[3].Metadata["position"])
	}
}

func TestEmbedChunks_Error(t *testing.T) {
	tests := []struct {
		name  string
		batch func(ctx context.Context, ch []string, huge bool) ([][]float32, error)
	}{
		{"provider error", func(ctx context.Context, ch []string, huge bool) ([][]float32, error) {
			return nil, errors.New("quota")
		}},
		{"short answer", func(ctx context.Context, ch []string, huge bool) ([][]float32, error) {
			return [][]float32{}, nil
		}},
		{"nil vector", func(ctx context.Context, ch []string, huge bool) ([][]float32, error) {
			return make([][]float32, len(ch)), nil
		}},
	}

	for _, tt := range tests {
		_, err := EmbedChunks(context.Background(), []commonModels.DocChunk{{Chunk: "hi"}}, &mockEmbedder{batchFunc: tt.batch}, ChunkMetadata)
		if !errors.Is(err, ragErrors.ErrEmbedding) {
			t.Errorf("%s: expected ErrEmbedding, got %v", tt.name, err)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadIsolatesFailures(t *testing.T) {
	docs := t.TempDir()
	store, err := localIndex.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	u := NewUploader(store, lengthEmbedder(), docs)

	paths := []string{
		writeFile(t, docs, "gdpr.txt", "Article 5. Personal data shall be processed lawfully."),
		writeFile(t, docs, "scan.png", "not really a png"),
		writeFile(t, docs, "ai-act.txt", "Article 6. Classification rules for high-risk AI systems."),
	}

	result := u.Upload(context.Background(), paths)

	if result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("Upload = %d succeeded, %d failed; want 2, 1", result.Succeeded, result.Failed)
	}
	if result.Failures[0].Path != paths[1] || !errors.Is(result.Failures[0].Err, ragErrors.ErrUnsupportedFileType) {
		t.Errorf("unexpected failure %+v", result.Failures[0])
	}

	idx, err := store.Load()
	if err != nil {
		t.Fatalf("Load after upload: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("index has %d records; want 2", idx.Len())
	}
	first := idx.Records()[0]
	if first.Id != ChunkID(MakeID("gdpr.txt"), 0) {
		t.Errorf("first record id = %s", first.Id)
	}
	if first.Metadata[commonModels.MetaDocName] != "gdpr.txt" {
		t.Errorf("doc name metadata = %q", first.Metadata[commonModels.MetaDocName])
	}
	second := idx.Records()[1]
	if second.Id != ChunkID(MakeID("ai-act.txt"), 0) || second.Metadata[commonModels.MetaDocName] != "ai-act.txt" {
		t.Errorf("second record = %s from %q; want the chunk of ai-act.txt", second.Id, second.Metadata[commonModels.MetaDocName])
	}
	if !strings.Contains(second.Text, "high-risk AI systems") {
		t.Errorf("second record text = %q", second.Text)
	}
	for _, r := range idx.Records() {
		if r.Metadata[commonModels.MetaDocName] == "scan.png" || r.Metadata[commonModels.MetaSource] == "scan.png" {
			t.Errorf("record %s comes from the rejected file", r.Id)
		}
	}
}

func TestUploadMissingAndEmptyFiles(t *testing.T) {
	docs := t.TempDir()
	store, err := localIndex.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	u := NewUploader(store, lengthEmbedder(), docs)

	result := u.Upload(context.Background(), []string{
		filepath.Join(docs, "missing.txt"),
		writeFile(t, docs, "blank.txt", "   \n\n  "),
	})

	if result.Succeeded != 0 || result.Failed != 2 {
		t.Fatalf("Upload = %+v", result)
	}
	if !errors.Is(result.Failures[1].Err, ragErrors.ErrEmptyInput) {
		t.Errorf("blank file error = %v", result.Failures[1].Err)
	}
	if store.Exists() {
		t.Error("index should not exist after only failures")
	}
}

func TestUploadSameContentTwiceAppends(t *testing.T) {
	docs := t.TempDir()
	store, err := localIndex.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	u := NewUploader(store, lengthEmbedder(), docs)
	path := writeFile(t, docs, "dora.txt", "Article 1. Digital operational resilience.")

	for i := 0; i < 2; i++ {
		if r := u.Upload(context.Background(), []string{path}); r.Succeeded != 1 {
			t.Fatalf("upload %d: %+v", i, r)
		}
	}

	idx, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 2 {
		t.Errorf("merge should append without dedup, got %d records", idx.Len())
	}
}
