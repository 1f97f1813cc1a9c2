package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the oracle backend.
type Config struct {
	// Provider is one of the Provider* names.
	Provider string `yaml:"provider"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds one oracle call including its retries.
	Timeout time.Duration `yaml:"timeout"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // OpenAI-compatible endpoints
}

type GeminiConfig struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`
}

type OpenRouterConfig struct {
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`

	// SiteURL and AppName are sent as OpenRouter attribution headers.
	SiteURL string `yaml:"site_url"`
	AppName string `yaml:"app_name"`
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp", AppName: "QuizGate"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 45 * time.Second,
	}
}

// ConfigFromEnv overlays QUIZGATE_* environment variables on the defaults.
func ConfigFromEnv() Config {
	return ApplyEnv(DefaultConfig())
}

// ApplyEnv overlays QUIZGATE_* environment variables on cfg. Unset
// variables leave the existing value untouched.
func ApplyEnv(cfg Config) Config {
	cfg.Provider = envStr("QUIZGATE_LLM_PROVIDER", cfg.Provider)
	cfg.Timeout = envDuration("QUIZGATE_LLM_TIMEOUT", cfg.Timeout)
	cfg.Retry.MaxAttempts = envInt("QUIZGATE_LLM_MAX_ATTEMPTS", cfg.Retry.MaxAttempts)

	cfg.Anthropic.APIKey = envStr("QUIZGATE_ANTHROPIC_API_KEY", cfg.Anthropic.APIKey)
	cfg.Anthropic.Model = envStr("QUIZGATE_ANTHROPIC_MODEL", cfg.Anthropic.Model)
	cfg.Anthropic.BaseURL = envStr("QUIZGATE_ANTHROPIC_BASE_URL", cfg.Anthropic.BaseURL)

	cfg.OpenAI.APIKey = envStr("QUIZGATE_OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = envStr("QUIZGATE_OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.BaseURL = envStr("QUIZGATE_OPENAI_BASE_URL", cfg.OpenAI.BaseURL)

	cfg.Gemini.APIKey = envStr("QUIZGATE_GEMINI_API_KEY", cfg.Gemini.APIKey)
	cfg.Gemini.Model = envStr("QUIZGATE_GEMINI_MODEL", cfg.Gemini.Model)

	cfg.OpenRouter.APIKey = envStr("QUIZGATE_OPENROUTER_API_KEY", cfg.OpenRouter.APIKey)
	cfg.OpenRouter.Model = envStr("QUIZGATE_OPENROUTER_MODEL", cfg.OpenRouter.Model)
	cfg.OpenRouter.BaseURL = envStr("QUIZGATE_OPENROUTER_BASE_URL", cfg.OpenRouter.BaseURL)
	cfg.OpenRouter.SiteURL = envStr("QUIZGATE_OPENROUTER_SITE_URL", cfg.OpenRouter.SiteURL)

	return cfg
}

// DiscoverConfig probes the vendors' standard API key variables
// (Gemini, OpenAI, Anthropic, OpenRouter) and picks the first provider
// whose key is present.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("QUIZGATE_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("QUIZGATE_OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("QUIZGATE_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("QUIZGATE_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
