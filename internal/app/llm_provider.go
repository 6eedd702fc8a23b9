package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/learnpath-backend/internal/platform/bedrock"
	"github.com/yungbote/learnpath-backend/internal/platform/breaker"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/openai"
)

const (
	LLMProviderBedrock = "bedrock"
	LLMProviderOpenAI  = "openai"
)

// LLM embeds queries and generates plans.
type LLM interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)
}

var (
	newBedrockClient = func(ctx context.Context, log *logger.Logger, cfg bedrock.Config, br *breaker.Breaker) (LLM, error) {
		c, err := bedrock.New(ctx, log, cfg, br)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	newOpenAIClient = func(log *logger.Logger, cfg openai.Config, br *breaker.Breaker) (LLM, error) {
		c, err := openai.New(log, cfg, br)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
)

// resolveLLM returns the provider named by cfg.LLMProvider and the embedding
// model it uses, which scopes the shared embedding cache.
func resolveLLM(ctx context.Context, log *logger.Logger, cfg Config) (LLM, string, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.LLMProvider))
	br := breaker.New(log, breaker.DefaultConfig(provider))
	switch provider {
	case LLMProviderBedrock:
		c, err := newBedrockClient(ctx, log, bedrock.Config{
			Region:         cfg.AWSRegion,
			EmbeddingModel: cfg.EmbeddingModel,
			PlanModel:      cfg.PlanModel,
			EmbeddingDim:   cfg.EmbeddingDim,
			Temperature:    cfg.PlanTemperature,
			MaxTokens:      cfg.PlanMaxTokens,
			TopP:           cfg.PlanTopP,
		}, br)
		if err != nil {
			return nil, "", fmt.Errorf("init bedrock client: %w", err)
		}
		return c, cfg.EmbeddingModel, nil
	case LLMProviderOpenAI:
		temp := cfg.PlanTemperature
		c, err := newOpenAIClient(log, openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			EmbedModel:  cfg.OpenAIEmbedding,
			Temperature: &temp,
		}, br)
		if err != nil {
			return nil, "", fmt.Errorf("init openai client: %w", err)
		}
		model := cfg.OpenAIEmbedding
		if model == "" {
			model = "text-embedding-3-small"
		}
		return c, model, nil
	default:
		return nil, "", fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}
}
