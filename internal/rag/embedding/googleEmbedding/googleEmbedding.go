package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag/embedding"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

var logger = logger_i.NewLogger("google_embedding")
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

// NewGoogleEmbedder builds an Embedder; its lifetime is owned by the caller.
func NewGoogleEmbedder(ctx context.Context, modelName string, apikey string) (embedding.Embedder, error) {
	if apikey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating Google embedding client: %w", err)
	}
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName}, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger.WithTrace(ctx)

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(query),
		&genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_QUERY"})
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, fmt.Errorf("%w: %w", ragErrors.ErrEmbedding, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ragErrors.ErrEmbedding)
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string, isLargeDataSet bool) ([][]float32, error) {
	log := logger.WithTrace(ctx)

	if !isLargeDataSet {
		res, err := c.doCall(ctx, getContent(chunks))
		if err != nil && doRetry(err, log) {
			log.Debug("Retrying in 5 seconds")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
			}
			res, err = c.doCall(ctx, getContent(chunks))
		}
		if err != nil || res == nil {
			log.Error("Error getting Embeddings from Google", "error", err)
			return nil, fmt.Errorf("%w: %v", ragErrors.ErrEmbedding, err)
		}
		embeddingResults := make([][]float32, 0, len(res.Embeddings))
		for _, r := range res.Embeddings {
			embeddingResults = append(embeddingResults, r.Values)
		}
		return embeddingResults, nil
	}

	src := genai.EmbeddingsBatchJobSource{InlinedRequests: getInlinedBatchRequests(chunks)}
	batchJobName := uuid.NewString()

	log = log.With("batchJobName", batchJobName, "chunks", len(chunks))
	conf := genai.CreateEmbeddingsBatchJobConfig{DisplayName: batchJobName}
	job, err := c.genAi.Batches.CreateEmbeddings(ctx, &c.model, &src, &conf)
	if err != nil {
		log.Error("Error creating batch embedding job", "error", err)
		return nil, fmt.Errorf("%w: %w", ragErrors.ErrEmbedding, err)
	}

	answer, err := c.pollForAnswer(ctx, job.Name, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ragErrors.ErrEmbedding, err)
	}
	return downloadAnswerFromClient(answer, log)
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content,
		&genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
}
