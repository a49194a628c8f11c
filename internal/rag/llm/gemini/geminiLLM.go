package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag/llm"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger = logger_i.NewLogger("llm_gemini")

// NewGeminiClient builds a Provider; its lifetime is owned by the caller.
func NewGeminiClient(ctx context.Context, modelName string, apikey string) (llm.Provider, error) {
	if apikey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	logger.Info("Gemini client created", "model", modelName)
	return &llmClient{client: c, modelName: modelName}, nil
}

func (c *llmClient) Generate(ctx context.Context, prompt string) (string, error) {
	log := logger.WithTrace(ctx)
	temperature := config.ModelTemperature
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: config.ModelContext}},
		},
		Temperature: &temperature,
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", fmt.Errorf("%w: %v", ragErrors.ErrGeneration, err)
	}
	if result == nil {
		return "", fmt.Errorf("%w: empty response", ragErrors.ErrGeneration)
	}
	return result.Text(), nil
}
