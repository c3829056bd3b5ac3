package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

func TestNewAIClient(t *testing.T) {
	base := config.Config{
		AppEnv:      "dev",
		GroqBaseURL: "https://api.groq.com/openai/v1",
		GroqModel:   "llama-3.3-70b-versatile",
		GeminiModel: "gemini-2.5-flash",
		AIMaxTokens: 3000,
		AITimeout:   60e9,
	}

	tests := []struct {
		name         string
		mutate       func(*config.Config)
		wantProvider string
		wantErr      error
	}{
		{"groq", func(c *config.Config) { c.AIProvider = "groq"; c.GroqAPIKey = "gsk" }, "groq", nil},
		{"default_is_groq", func(c *config.Config) { c.GroqAPIKey = "gsk" }, "groq", nil},
		{"gemini", func(c *config.Config) { c.AIProvider = "Gemini"; c.GeminiAPIKey = "g" }, "gemini", nil},
		{"stub", func(c *config.Config) { c.AIProvider = "stub" }, "stub", nil},
		{"groq_missing_key", func(c *config.Config) { c.AIProvider = "groq" }, "", domain.ErrConfiguration},
		{"gemini_missing_key", func(c *config.Config) { c.AIProvider = "gemini" }, "", domain.ErrConfiguration},
		{"unknown", func(c *config.Config) { c.AIProvider = "openai" }, "", domain.ErrConfiguration},
		{"stub_in_prod", func(c *config.Config) { c.AIProvider = "stub"; c.AppEnv = "prod" }, "", domain.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			client, err := NewAIClient(context.Background(), cfg)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, client.Provider())
		})
	}
}

func TestNewAIClient_BreakerWrapsProvider(t *testing.T) {
	cfg := config.Config{AppEnv: "dev", AIProvider: "stub", AIBreakerThreshold: 2, AIBreakerCooldown: 30e9}
	client, err := NewAIClient(context.Background(), cfg)
	require.NoError(t, err)

	bc, ok := client.(*breakerClient)
	require.True(t, ok)
	assert.Equal(t, "stub", bc.Provider())
	assert.Equal(t, ai.CircuitClosed, bc.breaker.State())

	out, err := client.ChatJSON(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "decision")

	cfg.AIBreakerThreshold = 0
	client, err = NewAIClient(context.Background(), cfg)
	require.NoError(t, err)
	_, wrapped := client.(*breakerClient)
	assert.False(t, wrapped)
}

func TestNewAIClient_CallerCancellationDoesNotOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": `{"ok": true}`}}},
		})
	}))
	defer ts.Close()

	cfg := config.Config{
		AppEnv:             "dev",
		AIProvider:         "groq",
		GroqAPIKey:         "gsk",
		GroqBaseURL:        ts.URL,
		GroqModel:          "llama-3.3-70b-versatile",
		AIMaxTokens:        100,
		AITimeout:          10 * time.Second,
		AIBreakerThreshold: 2,
		AIBreakerCooldown:  time.Minute,
	}
	client, err := NewAIClient(context.Background(), cfg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		_, err := client.ChatJSON(ctx, "sys", "user")
		cancel()
		require.Error(t, err)
	}
	assert.Equal(t, ai.CircuitClosed, client.(*breakerClient).breaker.State())

	out, err := client.ChatJSON(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)
	assert.Equal(t, int32(3), hits.Load())
}
