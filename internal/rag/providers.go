package rag

import (
	"context"
	"fmt"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/rag/embedding"
	"github.com/akolanti/RegGuru/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/RegGuru/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/RegGuru/internal/rag/llm"
	"github.com/akolanti/RegGuru/internal/rag/llm/gemini"
	"github.com/akolanti/RegGuru/internal/rag/llm/openaiLLM"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB/localIndex"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

// Providers bundles the model capabilities picked by LLM_PROVIDER.
type Providers struct {
	LLM      llm.Provider
	Embedder embedding.Embedder
}

func NewProviders(ctx context.Context, settings config.Settings) (Providers, error) {
	switch settings.LLMProvider {
	case config.LLMProviderOpenAI:
		chat, err := openaiLLM.NewChatClient(config.OpenAIChatModel, settings.OpenAIKey)
		if err != nil {
			return Providers{}, err
		}
		em, err := openaiEmbedding.NewEmbedder(config.OpenAIEmbedModel, settings.OpenAIKey)
		if err != nil {
			return Providers{}, err
		}
		return Providers{LLM: chat, Embedder: em}, nil

	case config.LLMProviderGemini:
		gen, err := gemini.NewGeminiClient(ctx, config.GeminiModelName, settings.GoogleAPIKey)
		if err != nil {
			return Providers{}, err
		}
		em, err := googleEmbedding.NewGoogleEmbedder(ctx, config.GoogleEmbedModel, settings.GoogleAPIKey)
		if err != nil {
			return Providers{}, err
		}
		return Providers{LLM: gen, Embedder: em}, nil

	default:
		return Providers{}, fmt.Errorf("unknown LLM_PROVIDER %q", settings.LLMProvider)
	}
}

// NewIndexStore opens the on-disk index at VECTORSTORE_DIRECTORY.
func NewIndexStore(settings config.Settings) (vectorDB.IndexStore, error) {
	return localIndex.NewStore(settings.VectorStoreDirectory)
}

// Build constructs the service with everything it needs; the semantic cache is optional.
func Build(ctx context.Context, settings config.Settings) (Service, Providers, error) {
	log := logger_i.NewLogger("RAG Setup")

	providers, err := NewProviders(ctx, settings)
	if err != nil {
		return nil, Providers{}, err
	}
	store, err := NewIndexStore(settings)
	if err != nil {
		return nil, Providers{}, err
	}

	var cache vectorDB.SemanticCache
	if settings.QdrantHost != "" {
		holder, err := qdrantDB.NewSemanticCache(ctx, settings.QdrantHost, settings.QdrantPort)
		if err != nil {
			log.Warn("Semantic cache unavailable, continuing without it", "error", err)
		} else {
			cache = holder
		}
	}

	return NewService(store, providers.LLM, providers.Embedder, cache), providers, nil
}
