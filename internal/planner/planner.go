// Package planner asks the oracle which subtopics a round should cover.
package planner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/abhisek/quizgate/internal/llm"
	"github.com/abhisek/quizgate/internal/quiz"
)

// Config controls the size of a plan and the oracle call budget.
type Config struct {
	// SubtopicCount is the exact number of subtopics per plan.
	SubtopicCount int

	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{
		SubtopicCount: 3,
		MaxTokens:     256,
		Temperature:   0.4,
	}
}

// PlanInput is what the planner knows about the learner.
type PlanInput struct {
	Topic string
	Level quiz.Level

	// History lists subtopics folded into earlier rounds. It is a hint
	// for the oracle, not a filter.
	History []string
}

// Planner turns a topic and level into a list of subtopics.
type Planner struct {
	provider llm.Provider
	config   Config
}

func New(provider llm.Provider, cfg Config) *Planner {
	if cfg.SubtopicCount < 1 {
		cfg.SubtopicCount = DefaultConfig().SubtopicCount
	}
	return &Planner{provider: provider, config: cfg}
}

// planOutput is the raw oracle reply.
type planOutput struct {
	Subtopics []string `json:"subtopics"`
}

// Plan returns exactly SubtopicCount distinct subtopics in the order the
// oracle listed them.
func (p *Planner) Plan(ctx context.Context, input PlanInput) ([]string, error) {
	ctx = llm.WithPurpose(ctx, quiz.RolePlanner)

	resp, err := p.provider.Generate(ctx, p.BuildRequest(input))
	if err != nil {
		return nil, quiz.OracleFailure(quiz.RolePlanner, err)
	}
	return parseSubtopics(resp.Content, p.config.SubtopicCount)
}

// BuildRequest renders the oracle request for input without sending it.
func (p *Planner) BuildRequest(input PlanInput) llm.Request {
	return llm.Request{
		System: systemPrompt(p.config.SubtopicCount),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input)},
		},
		Schema:      PlanSchema,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}
}

func parseSubtopics(content json.RawMessage, count int) ([]string, error) {
	var raw planOutput
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, quiz.Malformed(quiz.RolePlanner, content, "decode subtopics: %v", err)
	}

	seen := make(map[string]bool, len(raw.Subtopics))
	out := make([]string, 0, count)
	for _, s := range raw.Subtopics {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == count {
			return out, nil
		}
	}

	return nil, quiz.Malformed(quiz.RolePlanner, content,
		"got %d distinct subtopics, want %d", len(out), count)
}
