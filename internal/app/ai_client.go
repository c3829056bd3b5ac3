// Package app wires configuration, adapters and services into the runnable
// HTTP application.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai/groq"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// AIClient is a model client that can also report reachability.
type AIClient interface {
	domain.AIClient
	Provider() string
	Model() string
	Ping(ctx context.Context) error
}

// NewAIClient builds the client for cfg.AIProvider. A missing credential or
// unknown provider returns domain.ErrConfiguration.
func NewAIClient(ctx context.Context, cfg config.Config) (AIClient, error) {
	chat := cfg.AIChatConfig()
	if err := chat.Validate(); err != nil {
		return nil, fmt.Errorf("op=app.NewAIClient: %w", err)
	}

	var (
		client AIClient
		err    error
	)
	switch chat.Provider {
	case config.ProviderGroq:
		client, err = groq.New(chat)
	case config.ProviderGemini:
		client, err = gemini.New(ctx, chat, nil)
	case config.ProviderStub:
		if cfg.IsProd() {
			return nil, fmt.Errorf("%w: op=app.NewAIClient: stub provider is not allowed in prod", domain.ErrConfiguration)
		}
		client = stub.New()
	default:
		err = fmt.Errorf("%w: unknown AI provider %q", domain.ErrConfiguration, chat.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("op=app.NewAIClient: %w", err)
	}

	slog.Info("ai client configured",
		slog.String("provider", client.Provider()),
		slog.String("model", client.Model()),
		slog.Float64("temperature", chat.Temperature),
		slog.Int("max_tokens", chat.MaxTokens),
		slog.Duration("timeout", chat.Timeout),
		slog.Int("breaker_threshold", cfg.AIBreakerThreshold))
	if cfg.AIBreakerThreshold > 0 {
		client = &breakerClient{
			AIClient: client,
			breaker:  ai.NewCircuitBreaker(client.Provider(), cfg.AIBreakerThreshold, cfg.AIBreakerCooldown),
		}
	}
	return client, nil
}

// breakerClient fails fast with ai.ErrCircuitOpen while the provider is down.
type breakerClient struct {
	AIClient
	breaker *ai.CircuitBreaker
}

func (c *breakerClient) ChatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.breaker.Call(ctx, func() (string, error) {
		return c.AIClient.ChatJSON(ctx, systemPrompt, userPrompt)
	})
}
