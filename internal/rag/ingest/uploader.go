package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/internal/rag/embedding"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var logger = logger_i.NewLogger("Document Ingestion")

type FileFailure struct {
	Path string
	Err  error
}

type UploadResult struct {
	Succeeded int
	Failed    int
	Failures  []FileFailure
}

// Uploader turns files into chunk records and folds them into the persisted index.
// Every write to the index goes through its lock, so one Uploader per index location.
type Uploader struct {
	store    vectorDB.IndexStore
	embedder embedding.Embedder
	root     string
	mu       sync.Mutex
	now      func() time.Time
}

// NewUploader builds an Uploader. root is stripped from paths before hashing document ids.
func NewUploader(store vectorDB.IndexStore, embedder embedding.Embedder, root string) *Uploader {
	return &Uploader{store: store, embedder: embedder, root: root, now: time.Now}
}

// Upload processes paths one by one. A failing file is logged and counted, the rest continue.
func (u *Uploader) Upload(ctx context.Context, paths []string) UploadResult {
	log := logger.WithTrace(ctx)
	var result UploadResult

	for _, path := range paths {
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			_, err = u.UploadFile(ctx, path, filepath.Base(path))
		}

		metrics.CaptureUploadOutcome(err == nil)
		if err != nil {
			log.Error("Failed to upload document", "path", path, "error", err)
			result.Failed++
			result.Failures = append(result.Failures, FileFailure{Path: path, Err: err})
			continue
		}
		result.Succeeded++
	}

	log.Info("Upload finished", "succeeded", result.Succeeded, "failed", result.Failed)
	return result
}

// UploadFile indexes a single file under a display name and returns the number of chunks added.
func (u *Uploader) UploadFile(ctx context.Context, path string, name string) (int, error) {
	log := logger.WithTrace(ctx).With("path", path)

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ragErrors.ErrUnsupportedFileType, path)
	}

	docType := getDocType(path)
	if docType == commonModels.ERR {
		return 0, fmt.Errorf("%w: %s", ragErrors.ErrUnsupportedFileType, filepath.Ext(path))
	}

	ref := CanonicalRef(path, u.root)
	doc := commonModels.Document{
		Id:                  MakeID(ref),
		Name:                name,
		Path:                ref,
		LastIngestTimestamp: u.now(),
		ContentType:         docType,
	}

	pages, err := extractText(path, docType)
	if err != nil {
		return 0, err
	}
	log.Debug("Extracted document", "type", docType, "pages", len(pages))

	chunks := PrepareChunks(pages, doc)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s", ragErrors.ErrEmptyInput, path)
	}

	records, err := EmbedChunks(ctx, chunks, u.embedder, ChunkMetadata)
	if err != nil {
		return 0, err
	}
	if err := u.AddRecords(ctx, records); err != nil {
		return 0, err
	}

	log.Info("Indexed document", "doc_id", doc.Id, "chunks", len(records))
	return len(records), nil
}

// AddRecords merges records into the existing index, or creates it, and persists the result.
func (u *Uploader) AddRecords(ctx context.Context, records []commonModels.ChunkRecord) error {
	if len(records) == 0 {
		return ragErrors.ErrEmptyInput
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	var idx *vectorDB.Index
	var err error
	if u.store.Exists() {
		idx, err = u.store.Load()
		if err == nil {
			idx, err = u.store.Merge(idx, records)
		}
	} else {
		idx, err = u.store.Create(records)
	}
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return u.store.Persist(idx)
}
