// Package gemini implements domain.AIClient on the Gemini API through the
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

const providerName = "gemini"

// Client issues one GenerateContent call per ChatJSON. It has no retry logic.
type Client struct {
	cfg    config.AIChatConfig
	models *genai.Models
}

var _ domain.AIClient = (*Client)(nil)

// New validates cfg and builds the SDK client. BaseURL, when set, overrides the
// Gemini API endpoint.
func New(ctx context.Context, cfg config.AIChatConfig, hc *http.Client) (*Client, error) {
	cfg.Provider = config.ProviderGemini
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("op=gemini.New: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: op=gemini.New: %v", domain.ErrConfiguration, err)
	}
	return &Client{cfg: cfg, models: client.Models}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// Provider returns the provider name used in metrics and logs.
func (c *Client) Provider() string { return providerName }

// ChatJSON sends the prompts with application/json output requested and
// returns the candidate text unmodified.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	temperature := float32(c.cfg.Temperature)
	gc := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
		MaxOutputTokens:   int32(c.cfg.MaxTokens),
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(userPrompt), gc)
	if err != nil {
		wrapped, outcome := classifyError(err)
		observability.ObserveAIRequest(providerName, outcome, time.Since(start))
		slog.Error("ai provider request failed",
			slog.String("provider", providerName),
			slog.String("model", c.cfg.Model),
			slog.Any("error", err))
		return "", wrapped
	}
	if resp == nil || len(resp.Candidates) == 0 {
		observability.ObserveAIRequest(providerName, "bad_response", time.Since(start))
		return "", fmt.Errorf("%w: gemini response has no candidates", domain.ErrTransport)
	}

	text := resp.Text()
	usage := c.usage(resp, systemPrompt, userPrompt, text)
	observability.ObserveAIRequest(providerName, "ok", time.Since(start))
	observability.ObserveTokens(providerName, usage.PromptTokens, usage.CompletionTokens)
	slog.Debug("ai provider chat completed",
		slog.String("provider", providerName),
		slog.String("model", c.cfg.Model),
		slog.String("finish_reason", string(resp.Candidates[0].FinishReason)),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens),
		slog.Duration("duration", time.Since(start)))
	return text, nil
}

func (c *Client) usage(resp *genai.GenerateContentResponse, systemPrompt, userPrompt, text string) tokencount.TokenUsage {
	if md := resp.UsageMetadata; md != nil && (md.PromptTokenCount > 0 || md.CandidatesTokenCount > 0) {
		return tokencount.Reported(int(md.PromptTokenCount), int(md.CandidatesTokenCount), int(md.TotalTokenCount), c.cfg.Model, providerName)
	}
	return tokencount.CalculateUsageDefault(systemPrompt, userPrompt, text, c.cfg.Model, providerName)
}

// classifyError maps SDK and network failures onto the transport taxonomy.
func classifyError(err error) (error, string) {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	var ne net.Error
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: gemini: %w", domain.ErrTransport, domain.ErrUpstreamRateLimit, err), "rate_limited"
	case code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout,
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %w: gemini: %w", domain.ErrTransport, domain.ErrUpstreamTimeout, err), "timeout"
	case code >= 500:
		return fmt.Errorf("%w: gemini: %w", domain.ErrTransport, err), "5xx"
	case code >= 400:
		return fmt.Errorf("%w: gemini: %w", domain.ErrTransport, err), "4xx"
	default:
		return fmt.Errorf("%w: gemini: %w", domain.ErrTransport, err), "transport_error"
	}
}

// Ping fetches the configured model's metadata to confirm key and model.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.models.Get(ctx, c.cfg.Model, nil); err != nil {
		wrapped, _ := classifyError(err)
		return fmt.Errorf("op=gemini.Ping: %w", wrapped)
	}
	return nil
}
