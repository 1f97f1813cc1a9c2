package llm

import (
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider routes oracle requests through OpenRouter's
// OpenAI-compatible API. Models are vendor-qualified ("google/gemini-2.0-flash-exp").
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}

	inner := newOpenAIClient(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	}, attributionDoer(http.DefaultClient, cfg.SiteURL, cfg.AppName))
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// headerDoer adds fixed headers to every request before handing it on.
type headerDoer struct {
	next   openai.HTTPDoer
	header http.Header
}

func (d *headerDoer) Do(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range d.header {
		req.Header[k] = v
	}
	return d.next.Do(req)
}

// attributionDoer sets the HTTP-Referer and X-Title headers OpenRouter
// uses to attribute traffic to an app. Empty values are not sent.
func attributionDoer(next openai.HTTPDoer, siteURL, appName string) openai.HTTPDoer {
	header := make(http.Header)
	if siteURL != "" {
		header.Set("HTTP-Referer", siteURL)
	}
	if appName != "" {
		header.Set("X-Title", appName)
	}
	if len(header) == 0 {
		return next
	}
	return &headerDoer{next: next, header: header}
}
