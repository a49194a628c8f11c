package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
	"github.com/google/uuid"
)

// Answer retrieves the closest chunks for question and asks the LLM to answer from them.
// Only the answer text is returned; sources stay internal.
func (s *service) Answer(ctx context.Context, question string) (string, error) {
	log := s.logger.WithTrace(ctx)

	if strings.TrimSpace(question) == "" {
		return "", ragErrors.ErrEmptyQuery
	}
	if !s.store.Exists() {
		return "", ragErrors.ErrIndexNotFound
	}

	idx, err := s.executeLoadStep()
	if err != nil {
		return "", err
	}

	queryVector, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		return "", err
	}

	if cached, ok := s.cachedAnswer(ctx, queryVector, idx.Generation()); ok {
		return cached, nil
	}

	matches, err := s.executeVectorSearchStep(idx, queryVector)
	if err != nil {
		return "", err
	}
	log.Debug("Retrieved chunks", "count", len(matches))

	answer, err := s.executeLLMStep(ctx, BuildPrompt(question, matches))
	if err != nil {
		return "", err
	}

	s.saveToCache(ctx, queryVector, answer, idx.Generation())
	return answer, nil
}

func (s *service) executeLoadStep() (*vectorDB.Index, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_load", time.Since(start)) }()

	return s.store.Load()
}

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	vector, err := s.embedder.GetEmbedding(ctx, question)
	if err != nil && !errors.Is(err, ragErrors.ErrEmbedding) {
		err = fmt.Errorf("%w: %w", ragErrors.ErrEmbedding, err)
	}
	return vector, err
}

func (s *service) executeVectorSearchStep(idx *vectorDB.Index, vector []float32) ([]commonModels.ScoredChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.store.Query(idx, vector, config.RetrievalTopK)
}

func (s *service) executeLLMStep(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	answer, err := s.llmProvider.Generate(ctx, prompt)
	if err != nil && !errors.Is(err, ragErrors.ErrGeneration) {
		err = fmt.Errorf("%w: %w", ragErrors.ErrGeneration, err)
	}
	return answer, err
}

// BuildPrompt renders the fixed answer template over the retrieved chunk texts.
func BuildPrompt(question string, matches []commonModels.ScoredChunk) string {
	return fmt.Sprintf(config.LLMPrompt, buildContext(matches, config.MaxContextChars), question)
}

// buildContext joins chunk texts with blank lines, stopping before limit runes.
func buildContext(matches []commonModels.ScoredChunk, limit int) string {
	var b strings.Builder
	used := 0
	for i, m := range matches {
		text := m.Record.Text
		sep := 0
		if i > 0 {
			sep = 2
		}
		n := utf8.RuneCountInString(text)
		if used+sep+n > limit {
			if i == 0 {
				b.WriteString(string([]rune(text)[:limit]))
			}
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		used += sep + n
	}
	return b.String()
}

// cachedAnswer only consults the cache for a persisted index, an answer from before
// the latest upload may miss content that is now indexed.
func (s *service) cachedAnswer(ctx context.Context, vector []float32, generation string) (string, bool) {
	if s.cache == nil || generation == "" {
		return "", false
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	ans, found, err := s.cache.GetCachedAnswer(ctx, vector, generation)
	if err != nil {
		s.logger.WithTrace(ctx).Warn("Semantic cache lookup failed", "error", err)
		return "", false
	}
	return ans, found
}

func (s *service) saveToCache(ctx context.Context, vector []float32, answer, generation string) {
	if s.cache == nil || generation == "" {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.cache.SaveToCache(bg, uuid.NewString(), vector, answer, generation); err != nil {
			s.logger.WithTrace(bg).Warn("Failed to save to cache", "error", err)
		}
	}()
}
