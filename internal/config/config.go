// Package config defines configuration parsing and helpers.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// Supported model providers.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	// ProviderStub serves a canned evaluation without network access. Local development only.
	ProviderStub = "stub"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	// AIProvider selects the model-serving backend: groq (OpenAI-compatible), gemini or stub.
	AIProvider   string `env:"AI_PROVIDER" envDefault:"groq"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	GroqBaseURL  string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel    string `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	// Generation parameters shared by every provider.
	AITemperature float64       `env:"AI_TEMPERATURE" envDefault:"0.3"`
	AIMaxTokens   int           `env:"AI_MAX_TOKENS" envDefault:"3000"`
	AITimeout     time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`

	// AIBreakerThreshold consecutive transport failures open the provider circuit; 0 disables it.
	AIBreakerThreshold int           `env:"AI_BREAKER_THRESHOLD" envDefault:"5"`
	AIBreakerCooldown  time.Duration `env:"AI_BREAKER_COOLDOWN" envDefault:"30s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-recruiter-evaluator"`

	// TikaURL, when set, routes PDF and DOCX extraction to an Apache Tika server.
	TikaURL     string        `env:"TIKA_URL" envDefault:""`
	TikaTimeout time.Duration `env:"TIKA_TIMEOUT" envDefault:"15s"`

	// APIKeyHash is an argon2id hash; when set, evaluation routes require the matching key.
	APIKeyHash string `env:"API_KEY_HASH" envDefault:""`

	MaxUploadMB           int64         `env:"MAX_UPLOAD_MB" envDefault:"10"`
	MaxBodyKB             int64         `env:"MAX_BODY_KB" envDefault:"512"`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	// HTTPWriteTimeout must outlast two model calls since evaluation is synchronous.
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"150s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// AIChatConfig is the explicit configuration handed to a model client constructor.
type AIChatConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Load reads an optional .env file, then parses environment variables into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("op=config.Load: dotenv: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// APIKeyRequired reports whether evaluation routes are guarded by an API key.
func (c Config) APIKeyRequired() bool { return strings.TrimSpace(c.APIKeyHash) != "" }

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// AIChatConfig resolves the provider-specific credential and model.
func (c Config) AIChatConfig() AIChatConfig {
	out := AIChatConfig{
		Provider:    strings.ToLower(strings.TrimSpace(c.AIProvider)),
		Temperature: c.AITemperature,
		MaxTokens:   c.AIMaxTokens,
		Timeout:     c.AITimeout,
	}
	if out.Provider == "" {
		out.Provider = ProviderGroq
	}
	switch out.Provider {
	case ProviderGemini:
		out.APIKey = c.GeminiAPIKey
		out.Model = c.GeminiModel
	case ProviderStub:
		out.Model = ProviderStub
	default:
		out.APIKey = c.GroqAPIKey
		out.BaseURL = strings.TrimRight(c.GroqBaseURL, "/")
		out.Model = c.GroqModel
	}
	return out
}

// Validate reports configuration that makes any model call impossible.
// A missing credential is fatal and is detected before a request is built.
func (a AIChatConfig) Validate() error {
	switch a.Provider {
	case ProviderGroq, ProviderGemini:
	case ProviderStub:
		return nil
	default:
		return fmt.Errorf("%w: unknown AI_PROVIDER %q", domain.ErrConfiguration, a.Provider)
	}
	if strings.TrimSpace(a.APIKey) == "" {
		return fmt.Errorf("%w: %s not set", domain.ErrConfiguration, a.credentialEnv())
	}
	if a.Provider == ProviderGroq && a.BaseURL == "" {
		return fmt.Errorf("%w: GROQ_BASE_URL not set", domain.ErrConfiguration)
	}
	if a.MaxTokens <= 0 {
		return fmt.Errorf("%w: AI_MAX_TOKENS must be positive", domain.ErrConfiguration)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("%w: AI_TIMEOUT must be positive", domain.ErrConfiguration)
	}
	return nil
}

func (a AIChatConfig) credentialEnv() string {
	if a.Provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "GROQ_API_KEY"
}
