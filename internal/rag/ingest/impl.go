package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/internal/rag/embedding"
)

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func extractText(path string, contentType commonModels.DocType) ([]commonModels.RawPage, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX:
		return extractDocx(path)
	case commonModels.TXT:
		return extractTxt(path)
	default:
		return nil, fmt.Errorf("%w: %s", ragErrors.ErrUnsupportedFileType, filepath.Ext(path))
	}
}

// ChunkMetadata is the metadata map stored with every uploaded chunk.
func ChunkMetadata(c commonModels.DocChunk) map[string]string {
	return map[string]string{
		commonModels.MetaSource:   c.Doc.Path,
		commonModels.MetaDocName:  c.Doc.Name,
		commonModels.MetaPage:     strconv.Itoa(c.PageNum),
		commonModels.MetaPosition: strconv.Itoa(c.Position),
		commonModels.MetaIngested: c.Doc.LastIngestTimestamp.UTC().Format(time.RFC3339),
	}
}

// EmbedChunks embeds chunk texts in batches of config.EmbedBatchSize and pairs every
// vector with its chunk. meta builds the metadata of each record.
func EmbedChunks(ctx context.Context, chunks []commonModels.DocChunk, embedder embedding.Embedder,
	meta func(commonModels.DocChunk) map[string]string) ([]commonModels.ChunkRecord, error) {
	log := logger.WithTrace(ctx)
	records := make([]commonModels.ChunkRecord, 0, len(chunks))
	isHugeDataSet := len(chunks) > config.HugeDataSetChunks
	if isHugeDataSet {
		log.Debug("Is a huge dataset", "chunks", len(chunks))
	}

	for i := 0; i < len(chunks); i += config.EmbedBatchSize {
		end := i + config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		currentBatch := chunks[i:end]

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.Chunk
		}

		log.Debug("Starting embedding call", "batch start", i, "batch length", len(texts))
		start := time.Now()
		vectors, err := embedder.BatchEmbedding(ctx, texts, isHugeDataSet)
		metrics.CaptureExecutionMetrics("embedding", time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d: %v", ragErrors.ErrEmbedding, i/config.EmbedBatchSize, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ragErrors.ErrEmbedding, len(vectors), len(texts))
		}

		for j, c := range currentBatch {
			if len(vectors[j]) == 0 {
				return nil, fmt.Errorf("%w: empty vector for chunk %s", ragErrors.ErrEmbedding, c.ChunkId)
			}
			records = append(records, commonModels.ChunkRecord{
				Id:       c.ChunkId,
				Text:     c.Chunk,
				Vector:   vectors[j],
				Metadata: meta(c),
			})
		}
	}

	return records, nil
}
