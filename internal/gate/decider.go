// Package gate decides whether a learner may leave the current level.
//
// The oracle proposes a verdict; Revalidate then recomputes admissibility
// from the stored scores, so a lenient or inconsistent oracle can never
// promote a learner with weak subtopics.
package gate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/abhisek/quizgate/internal/llm"
	"github.com/abhisek/quizgate/internal/quiz"
)

type Config struct {
	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.2,
	}
}

// Input is the round summary the oracle decides on.
type Input struct {
	Topic     string
	Level     quiz.Level
	Subtopics []string
	Averages  map[string]float64
	Overall   float64
}

// InputFor summarizes result for the gate.
func InputFor(topic string, level quiz.Level, result *quiz.RoundResult) Input {
	return Input{
		Topic:     topic,
		Level:     level,
		Subtopics: result.Subtopics(),
		Averages:  result.SubtopicAverages(),
		Overall:   result.OverallAverage(),
	}
}

type Decider struct {
	provider llm.Provider
	config   Config
}

func New(provider llm.Provider, cfg Config) *Decider {
	return &Decider{provider: provider, config: cfg}
}

type gateOutput struct {
	Advance             *bool    `json:"advance"`
	Reason              *string  `json:"reason"`
	AdditionalSubtopics []string `json:"additional_subtopics"`
}

// Decide returns the oracle's verdict as given. Callers should pass it
// through Revalidate before acting on it.
func (d *Decider) Decide(ctx context.Context, input Input) (quiz.GateVerdict, error) {
	ctx = llm.WithPurpose(ctx, quiz.RoleGate)

	resp, err := d.provider.Generate(ctx, d.BuildRequest(input))
	if err != nil {
		return quiz.GateVerdict{}, quiz.OracleFailure(quiz.RoleGate, err)
	}
	return parseVerdict(resp.Content)
}

// BuildRequest renders the oracle request for input without sending it.
func (d *Decider) BuildRequest(input Input) llm.Request {
	return llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input)},
		},
		Schema:      VerdictSchema,
		MaxTokens:   d.config.MaxTokens,
		Temperature: d.config.Temperature,
	}
}

func parseVerdict(content json.RawMessage) (quiz.GateVerdict, error) {
	var raw gateOutput
	if err := json.Unmarshal(content, &raw); err != nil {
		return quiz.GateVerdict{}, quiz.Malformed(quiz.RoleGate, content, "decode verdict: %v", err)
	}
	if raw.Advance == nil {
		return quiz.GateVerdict{}, quiz.Malformed(quiz.RoleGate, content, "missing advance")
	}
	if raw.Reason == nil {
		return quiz.GateVerdict{}, quiz.Malformed(quiz.RoleGate, content, "missing reason")
	}

	additional := make([]string, 0, len(raw.AdditionalSubtopics))
	for _, s := range raw.AdditionalSubtopics {
		if s = strings.TrimSpace(s); s != "" {
			additional = append(additional, s)
		}
	}

	return quiz.GateVerdict{
		Advance:             *raw.Advance,
		Reason:              strings.TrimSpace(*raw.Reason),
		AdditionalSubtopics: additional,
		OracleAdvance:       *raw.Advance,
	}, nil
}
