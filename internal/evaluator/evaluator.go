// Package evaluator grades a single answer with the oracle.
package evaluator

import (
	"context"
	"encoding/json"
	"math"
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

// EvalInput is one question/answer pair in the context of its topic.
type EvalInput struct {
	Topic    string
	Level    quiz.Level
	Question string

	// Answer is sent as typed; an empty answer is graded, not rejected.
	Answer string
}

// Evaluation is the oracle's grade for one answer.
type Evaluation struct {
	Score    float64
	Feedback string
}

type Evaluator struct {
	provider llm.Provider
	config   Config
}

func New(provider llm.Provider, cfg Config) *Evaluator {
	return &Evaluator{provider: provider, config: cfg}
}

// evalOutput is the raw reply. Pointers tell a missing field apart from
// a zero score or empty feedback.
type evalOutput struct {
	Score    *float64 `json:"score"`
	Feedback *string  `json:"feedback"`
}

// Evaluate grades input.Answer. Scores outside [0, 1] are rejected, not
// clamped.
func (e *Evaluator) Evaluate(ctx context.Context, input EvalInput) (Evaluation, error) {
	ctx = llm.WithPurpose(ctx, quiz.RoleEvaluator)

	resp, err := e.provider.Generate(ctx, e.BuildRequest(input))
	if err != nil {
		return Evaluation{}, quiz.OracleFailure(quiz.RoleEvaluator, err)
	}
	return parseEvaluation(resp.Content)
}

// BuildRequest renders the oracle request for input without sending it.
func (e *Evaluator) BuildRequest(input EvalInput) llm.Request {
	return llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input)},
		},
		Schema:      EvaluationSchema,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	}
}

func parseEvaluation(content json.RawMessage) (Evaluation, error) {
	var raw evalOutput
	if err := json.Unmarshal(content, &raw); err != nil {
		return Evaluation{}, quiz.Malformed(quiz.RoleEvaluator, content, "decode evaluation: %v", err)
	}
	if raw.Score == nil {
		return Evaluation{}, quiz.Malformed(quiz.RoleEvaluator, content, "missing score")
	}
	score := *raw.Score
	if math.IsNaN(score) || score < 0 || score > 1 {
		return Evaluation{}, quiz.Malformed(quiz.RoleEvaluator, content, "score %v outside [0, 1]", score)
	}
	if raw.Feedback == nil {
		return Evaluation{}, quiz.Malformed(quiz.RoleEvaluator, content, "missing feedback")
	}
	return Evaluation{Score: score, Feedback: strings.TrimSpace(*raw.Feedback)}, nil
}
