package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/quizgate/internal/store"
)

// ErrNoProvider is returned by NewProviderFromEnv when no provider is
// configured and no vendor API key can be discovered.
var ErrNoProvider = errors.New("no LLM provider configured: set QUIZGATE_LLM_PROVIDER or a vendor API key")

// NewProvider builds the configured provider wrapped as
// caller -> timeout -> retry -> logging -> base.
// eventRepo may be nil, in which case calls are only logged to slog.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, eventRepo)
	retried := WithRetry(logged, cfg.Retry)
	return WithTimeout(retried, cfg.Timeout), nil
}

// NewProviderFromEnv uses QUIZGATE_* variables when QUIZGATE_LLM_PROVIDER
// is set and falls back to DiscoverConfig otherwise.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo) (Provider, error) {
	cfg, err := ResolveConfig(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, eventRepo)
}

// ResolveConfig applies the environment to base. An explicit
// QUIZGATE_LLM_PROVIDER wins; otherwise, when base has no usable key,
// vendor keys are discovered.
func ResolveConfig(base Config) (Config, error) {
	cfg := ApplyEnv(base)
	if cfg.Validate() == nil {
		return cfg, nil
	}
	if envStr("QUIZGATE_LLM_PROVIDER", "") != "" {
		return cfg, cfg.Validate()
	}
	discovered, ok := DiscoverConfig()
	if !ok {
		return Config{}, ErrNoProvider
	}
	discovered.Retry = cfg.Retry
	discovered.Timeout = cfg.Timeout
	return discovered, nil
}

// TimeoutProvider bounds every Generate call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call gets at most d. A non-positive d
// returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(callCtx, req)
	// Only our own deadline becomes an outage; the caller's cancellation passes through.
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("no reply within %s: %w", t.timeout, err)}
	}
	return resp, err
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
