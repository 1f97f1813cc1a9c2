// Package llm is the oracle client: a provider-neutral way to send a
// structured prompt to a language model and get validated JSON back.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends prompts to a language model.
type Provider interface {
	// Generate sends the request and returns the model's reply. When the
	// request carries a Schema, the reply Content is JSON that has been
	// validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier the provider is configured with.
	ModelID() string
}

// Request is a single prompt: system instructions, the conversation and
// the shape the answer must take.
type Request struct {
	// System sets the model's role and the rules it must follow.
	System string

	// Messages is the conversation. Every oracle role in quizgate sends a
	// single user message.
	Messages []Message

	// Schema is the JSON Schema the reply must conform to. Providers use
	// their native structured output mechanism when it is set.
	Schema *Schema

	// MaxTokens caps the reply length.
	MaxTokens int

	// Temperature controls randomness in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema describes the JSON an oracle role must answer with.
type Schema struct {
	// Name identifies the schema, kebab-case (e.g. "gate-verdict"). It is
	// sent as the schema name to providers that need one.
	Name string

	// Description tells the model what the object represents.
	Description string

	// Definition is the JSON Schema document.
	Definition map[string]any

	// Strict asks providers that support it (OpenAI) to enforce the schema
	// while decoding. Only set it for schemas with fixed property sets.
	Strict bool

	// Dynamic marks a schema built per request. It is compiled for each
	// validation and never enters the compiled-schema cache.
	Dynamic bool
}

// Response is the model's reply.
type Response struct {
	// Content is the raw reply. With a Schema it is the validated JSON object.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is one of StopEnd, StopMaxTokens or StopFiltered.
	StopReason string
}

// Usage reports token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopFiltered  = "error"
)

// normalizeStop looks up a provider stop reason. Unknown reasons count as
// a normal end of reply.
func normalizeStop[K comparable](known map[K]string, reason K) string {
	if s, ok := known[reason]; ok {
		return s
	}
	return StopEnd
}
