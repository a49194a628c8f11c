package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/customHttpClient"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag/embedding"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("openai_embedding")

const retryWait = 5 * time.Second

type client struct {
	api   openai.Client
	model string
}

func NewEmbedder(model string, apiKey string, opts ...option.RequestOption) (embedding.Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.NewClient(config.JobTimeout)),
	}
	return &client{api: openai.NewClient(append(base, opts...)...), model: model}, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// BatchEmbedding sends one request per call; callers keep batches small.
// A rate-limited request is retried once.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string, _ bool) ([][]float32, error) {
	log := logger.WithTrace(ctx)
	vectors, err := c.embed(ctx, chunks)
	if err != nil && isRateLimited(err) {
		log.Warn("Rate limit hit, retrying", "wait", retryWait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryWait):
		}
		vectors, err = c.embed(ctx, chunks)
	}
	return vectors, err
}

func (c *client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		logger.WithTrace(ctx).Error("Error getting embeddings from OpenAI", "error", err)
		return nil, fmt.Errorf("%w: %w", ragErrors.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ragErrors.ErrEmbedding, len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ragErrors.ErrEmbedding, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			vec[i] = float32(x)
		}
		out[d.Index] = vec
	}
	return out, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}
