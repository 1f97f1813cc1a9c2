// Package quizgen composes the questions of a round.
package quizgen

import (
	"context"
	"log/slog"

	"github.com/abhisek/quizgate/internal/llm"
	"github.com/abhisek/quizgate/internal/quiz"
)

// Config controls round size and the oracle call budget.
type Config struct {
	// QuestionsPerSubtopic is the exact number of questions per subtopic.
	QuestionsPerSubtopic int

	// MaxPriorQuestions caps how many earlier questions are listed in the
	// prompt as ones to avoid.
	MaxPriorQuestions int

	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{
		QuestionsPerSubtopic: 1,
		MaxPriorQuestions:    8,
		MaxTokens:            1024,
		Temperature:          0.7,
	}
}

// ComposeInput is everything the composer knows when building a round.
type ComposeInput struct {
	Topic     string
	Level     quiz.Level
	Subtopics []string

	// Suggestions are subtopics the last gate asked to cover.
	Suggestions []string

	// PriorQuestions are questions already asked in the session, oldest first.
	PriorQuestions []string
}

// Composer asks the oracle for questions and flattens the reply.
type Composer struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
}

func New(provider llm.Provider, cfg Config) *Composer {
	if cfg.QuestionsPerSubtopic < 1 {
		cfg.QuestionsPerSubtopic = 1
	}
	return &Composer{
		provider: provider,
		config:   cfg,
		logger:   slog.Default().With("component", "quizgen"),
	}
}

// Compose returns QuestionsPerSubtopic questions for every subtopic,
// grouped by subtopic in input order.
func (c *Composer) Compose(ctx context.Context, input ComposeInput) ([]quiz.Question, error) {
	if len(input.Subtopics) == 0 {
		return nil, &quiz.InvalidTransitionError{Op: "compose_quiz", Reason: "no subtopics to compose"}
	}
	ctx = llm.WithPurpose(ctx, quiz.RoleComposer)

	resp, err := c.provider.Generate(ctx, c.BuildRequest(input))
	if err != nil {
		return nil, quiz.OracleFailure(quiz.RoleComposer, err)
	}

	questions, ignored, err := normalize(resp.Content, input.Subtopics, c.config.QuestionsPerSubtopic)
	if err != nil {
		return nil, err
	}
	if len(ignored) > 0 {
		c.logger.WarnContext(ctx, "ignoring unrequested subtopics in quiz reply", "subtopics", ignored)
	}
	return questions, nil
}

// BuildRequest renders the oracle request for input without sending it.
func (c *Composer) BuildRequest(input ComposeInput) llm.Request {
	return llm.Request{
		System: systemPrompt(c.config.QuestionsPerSubtopic),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, c.config)},
		},
		Schema:      QuestionSchema(input.Subtopics, c.config.QuestionsPerSubtopic),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
}
