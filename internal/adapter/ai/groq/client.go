// Package groq implements domain.AIClient against Groq's OpenAI-compatible
// chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

const (
	providerName = "groq"
	// bodySnippetLimit bounds how much of an error body is logged and returned.
	bodySnippetLimit = 512
)

// Client issues a single chat completion per call. It has no retry logic.
type Client struct {
	cfg     config.AIChatConfig
	hc      *http.Client
	counter *tokencount.Counter
}

var _ domain.AIClient = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithCounter sets the token counter used when the API omits usage.
func WithCounter(counter *tokencount.Counter) Option {
	return func(c *Client) { c.counter = counter }
}

// New validates cfg and constructs a client. A missing credential returns
// domain.ErrConfiguration before any request is attempted.
func New(cfg config.AIChatConfig, opts ...Option) (*Client, error) {
	cfg.Provider = config.ProviderGroq
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("op=groq.New: %w", err)
	}
	c := &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		counter: tokencount.DefaultCounter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// Provider returns the provider name used in metrics and logs.
func (c *Client) Provider() string { return providerName }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatJSON sends the system and user prompts with JSON output mode requested
// and returns the raw message content. Network failures, timeouts and non-2xx
// statuses are returned wrapped in domain.ErrTransport.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: op=groq.ChatJSON: marshal: %v", domain.ErrInternal, err)
	}

	endpoint := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: op=groq.ChatJSON: build request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveAIRequest(providerName, "transport_error", time.Since(start))
		slog.Error("ai provider request failed",
			slog.String("provider", providerName),
			slog.String("model", c.cfg.Model),
			slog.Any("error", err))
		return "", classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.ObserveAIRequest(providerName, "transport_error", time.Since(start))
		return "", classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := snippet(bodyBytes)
		attrs := []any{
			slog.String("provider", providerName),
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.cfg.Model),
			slog.String("endpoint", endpoint),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
			slog.String("body", snippet),
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			observability.ObserveAIRequest(providerName, "rate_limited", time.Since(start))
			slog.Warn("ai provider rate limited", attrs...)
			return "", fmt.Errorf("%w: %w: chat status %d: %s", domain.ErrTransport, domain.ErrUpstreamRateLimit, resp.StatusCode, snippet)
		case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
			observability.ObserveAIRequest(providerName, "timeout", time.Since(start))
			slog.Error("ai provider timeout", attrs...)
			return "", fmt.Errorf("%w: %w: chat status %d: %s", domain.ErrTransport, domain.ErrUpstreamTimeout, resp.StatusCode, snippet)
		case resp.StatusCode >= 500:
			observability.ObserveAIRequest(providerName, "5xx", time.Since(start))
			slog.Error("ai provider non-2xx", attrs...)
		default:
			observability.ObserveAIRequest(providerName, "4xx", time.Since(start))
			slog.Warn("ai provider 4xx", attrs...)
		}
		return "", fmt.Errorf("%w: chat status %d: %s", domain.ErrTransport, resp.StatusCode, snippet)
	}

	var out chatResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		observability.ObserveAIRequest(providerName, "bad_response", time.Since(start))
		slog.Error("ai provider decode error",
			slog.String("provider", providerName),
			slog.String("model", c.cfg.Model),
			slog.Any("error", err))
		return "", fmt.Errorf("%w: decode chat response: %v: %s", domain.ErrTransport, err, snippet(bodyBytes))
	}
	if len(out.Choices) == 0 {
		observability.ObserveAIRequest(providerName, "bad_response", time.Since(start))
		return "", fmt.Errorf("%w: chat response has no choices", domain.ErrTransport)
	}
	content := out.Choices[0].Message.Content

	usage := tokencount.Reported(out.Usage.PromptTokens, out.Usage.CompletionTokens, out.Usage.TotalTokens, c.cfg.Model, providerName)
	if out.Usage.PromptTokens == 0 && out.Usage.CompletionTokens == 0 {
		usage = c.counter.CalculateUsage(systemPrompt, userPrompt, content, c.cfg.Model, providerName)
	}
	observability.ObserveAIRequest(providerName, "ok", time.Since(start))
	observability.ObserveTokens(providerName, usage.PromptTokens, usage.CompletionTokens)
	slog.Debug("ai provider chat completed",
		slog.String("provider", providerName),
		slog.String("model", c.cfg.Model),
		slog.String("finish_reason", out.Choices[0].FinishReason),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens),
		slog.Bool("tokens_estimated", usage.Estimated),
		slog.Duration("duration", time.Since(start)))
	return content, nil
}

func classifyTransportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %w: %w", domain.ErrTransport, domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}

func snippet(b []byte) string {
	if len(b) > bodySnippetLimit {
		b = b[:bodySnippetLimit]
	}
	return string(b)
}

// Ping checks that the API answers GET /models with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("op=groq.Ping: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("op=groq.Ping: %w", classifyTransportError(err))
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, bodySnippetLimit))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: op=groq.Ping: status %d", domain.ErrTransport, resp.StatusCode)
	}
	return nil
}
