package openaiLLM

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/customHttpClient"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag/llm"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("llm_openai")

type chatClient struct {
	client openai.Client
	model  string
}

// NewChatClient returns a Provider backed by the chat completions API.
func NewChatClient(model string, apiKey string, opts ...option.RequestOption) (llm.Provider, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.NewClient(config.JobTimeout)),
	}
	return &chatClient{
		client: openai.NewClient(append(base, opts...)...),
		model:  model,
	}, nil
}

func (c *chatClient) Generate(ctx context.Context, prompt string) (string, error) {
	log := logger.WithTrace(ctx)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.ModelContext),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(config.ModelTemperature)),
	})
	if err != nil {
		log.Error("OpenAI chat completion failed", "error", err)
		return "", fmt.Errorf("%w: %v", ragErrors.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ragErrors.ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}
