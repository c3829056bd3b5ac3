package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// clearEnvVars unsets every variable Load reads so host settings do not leak in.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "PORT", "AI_PROVIDER",
		"GROQ_API_KEY", "GROQ_BASE_URL", "GROQ_MODEL",
		"GEMINI_API_KEY", "GEMINI_MODEL",
		"AI_TEMPERATURE", "AI_MAX_TOKENS", "AI_TIMEOUT",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME",
		"MAX_UPLOAD_MB", "MAX_BODY_KB", "CORS_ALLOW_ORIGINS", "RATE_LIMIT_PER_MIN",
		"SERVER_SHUTDOWN_TIMEOUT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
	} {
		// t.Setenv registers the restore; Unsetenv then removes the value for this test.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ProviderGroq, cfg.AIProvider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.GroqModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.InDelta(t, 0.3, cfg.AITemperature, 1e-9)
	assert.Equal(t, 3000, cfg.AIMaxTokens)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, 30*time.Second, cfg.ServerShutdownTimeout)
	assert.Empty(t, cfg.GroqAPIKey)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
	assert.False(t, cfg.IsTest())
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("AI_TEMPERATURE", "0.1")
	t.Setenv("AI_MAX_TOKENS", "1500")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://hr.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://hr.example.com", cfg.CORSAllowOrigins)

	ai := cfg.AIChatConfig()
	assert.Equal(t, ProviderGemini, ai.Provider)
	assert.Equal(t, "g-key", ai.APIKey)
	assert.Equal(t, "gemini-2.0-flash", ai.Model)
	assert.Empty(t, ai.BaseURL)
	assert.InDelta(t, 0.1, ai.Temperature, 1e-9)
	assert.Equal(t, 1500, ai.MaxTokens)
	assert.Equal(t, 5*time.Second, ai.Timeout)
	assert.NoError(t, ai.Validate())
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("AI_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=config.Load")
}

func TestAIChatConfig_Groq(t *testing.T) {
	cfg := Config{
		AIProvider:    " GROQ ",
		GroqAPIKey:    "gsk-test",
		GroqBaseURL:   "https://api.groq.com/openai/v1/",
		GroqModel:     "llama-3.3-70b-versatile",
		AITemperature: 0.3,
		AIMaxTokens:   3000,
		AITimeout:     time.Minute,
	}
	ai := cfg.AIChatConfig()
	assert.Equal(t, ProviderGroq, ai.Provider)
	assert.Equal(t, "gsk-test", ai.APIKey)
	assert.Equal(t, "https://api.groq.com/openai/v1", ai.BaseURL)
	assert.NoError(t, ai.Validate())

	cfg.AIProvider = ""
	assert.Equal(t, ProviderGroq, cfg.AIChatConfig().Provider)
}

func TestAIChatConfig_StubNeedsNoCredential(t *testing.T) {
	ai := Config{AIProvider: "stub"}.AIChatConfig()
	assert.Equal(t, ProviderStub, ai.Provider)
	assert.Empty(t, ai.APIKey)
	assert.NoError(t, ai.Validate())
}

func TestAIChatConfig_Validate(t *testing.T) {
	base := AIChatConfig{
		Provider:  ProviderGroq,
		APIKey:    "gsk-test",
		BaseURL:   "https://api.groq.com/openai/v1",
		Model:     "llama-3.3-70b-versatile",
		MaxTokens: 3000,
		Timeout:   time.Minute,
	}
	tests := []struct {
		name    string
		mutate  func(*AIChatConfig)
		wantMsg string
	}{
		{"missing groq key", func(a *AIChatConfig) { a.APIKey = "" }, "GROQ_API_KEY not set"},
		{"blank key", func(a *AIChatConfig) { a.APIKey = "   " }, "GROQ_API_KEY not set"},
		{"missing gemini key", func(a *AIChatConfig) { a.Provider = ProviderGemini; a.APIKey = "" }, "GEMINI_API_KEY not set"},
		{"unknown provider", func(a *AIChatConfig) { a.Provider = "openrouter" }, "unknown AI_PROVIDER"},
		{"no base url", func(a *AIChatConfig) { a.BaseURL = "" }, "GROQ_BASE_URL not set"},
		{"zero tokens", func(a *AIChatConfig) { a.MaxTokens = 0 }, "AI_MAX_TOKENS"},
		{"zero timeout", func(a *AIChatConfig) { a.Timeout = 0 }, "AI_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := base
			tt.mutate(&a)
			err := a.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
	assert.NoError(t, base.Validate())
}
