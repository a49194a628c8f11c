package llm

import "context"

// Provider turns a fully rendered prompt into an answer.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
