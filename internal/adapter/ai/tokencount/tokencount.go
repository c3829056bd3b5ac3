// Package tokencount estimates prompt and completion token usage for model calls.
//
// Counts are used for metrics and logs only; they never gate a request.
// Encodings load from the embedded BPE files so no network access is needed.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// fallbackEncoding approximates tokenization for models tiktoken does not know.
const fallbackEncoding = "cl100k_base"

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TokenUsage represents token counts for one model call.
type TokenUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
	// Estimated is true when the counts were computed locally rather than
	// reported by the provider.
	Estimated bool `json:"estimated"`
}

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{
		encodingCache: make(map[string]*tiktoken.Tiktoken),
	}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) getEncodingForModel(model string) (*tiktoken.Tiktoken, error) {
	key := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[key]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[key]; ok {
		return enc, nil
	}

	var (
		enc *tiktoken.Tiktoken
		err error
	)
	if key == fallbackEncoding {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	} else {
		enc, err = tiktoken.EncodingForModel(key)
		if err != nil {
			slog.Debug("falling back to cl100k_base encoding",
				slog.String("model", model),
				slog.Any("error", err))
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
	}
	if err != nil {
		return nil, err
	}
	c.encodingCache[key] = enc
	return enc, nil
}

// normalizeModelName maps a provider model ID to a tiktoken model name or
// to the fallback encoding. Llama, Gemini, Mistral and similar families are
// approximated with cl100k_base.
func normalizeModelName(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	switch {
	case strings.HasPrefix(model, "gpt-4"):
		return "gpt-4"
	case strings.HasPrefix(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		return fallbackEncoding
	}
}

// CountTokens counts the tokens in text for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountChatTokens counts tokens for a system+user chat request, including the
// per-message framing used by OpenAI-compatible APIs.
func (c *Counter) CountChatTokens(systemPrompt, userPrompt, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}

	const tokensPerMessage = 3
	const tokensPerRole = 1

	n := 0
	for _, m := range [][2]string{{"system", systemPrompt}, {"user", userPrompt}} {
		n += tokensPerMessage + tokensPerRole
		n += len(enc.Encode(m[0], nil, nil))
		n += len(enc.Encode(m[1], nil, nil))
	}
	// reply priming
	n += 3
	return n, nil
}

// CalculateUsage estimates full token usage for a chat completion. Counting
// failures degrade to a four-characters-per-token estimate.
func (c *Counter) CalculateUsage(systemPrompt, userPrompt, completion, model, provider string) TokenUsage {
	promptTokens, err := c.CountChatTokens(systemPrompt, userPrompt, model)
	if err != nil {
		slog.Warn("failed to count prompt tokens, using estimate",
			slog.String("model", model),
			slog.Any("error", err))
		promptTokens = (len(systemPrompt) + len(userPrompt)) / 4
	}

	completionTokens, err := c.CountTokens(completion, model)
	if err != nil {
		slog.Warn("failed to count completion tokens, using estimate",
			slog.String("model", model),
			slog.Any("error", err))
		completionTokens = len(completion) / 4
	}

	return TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Model:            model,
		Provider:         provider,
		Estimated:        true,
	}
}

// Reported builds a TokenUsage from provider-reported counts.
func Reported(prompt, completion, total int, model, provider string) TokenUsage {
	if total == 0 {
		total = prompt + completion
	}
	return TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      total,
		Model:            model,
		Provider:         provider,
	}
}

// CalculateUsageDefault uses the default counter to calculate usage.
func CalculateUsageDefault(systemPrompt, userPrompt, completion, model, provider string) TokenUsage {
	return DefaultCounter.CalculateUsage(systemPrompt, userPrompt, completion, model, provider)
}
