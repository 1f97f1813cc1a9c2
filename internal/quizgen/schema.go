package quizgen

import (
	"fmt"

	"github.com/abhisek/quizgate/internal/llm"
)

// QuestionSchema builds the reply schema for one round: a property per
// subtopic, each holding the numbered questions q1..qN. Subtopic keys are
// not required here because the normalizer matches them case-insensitively
// and reports the ones that are missing. Additional keys are allowed at
// both levels; the normalizer ignores unrequested subtopics and truncates
// extra questions.
func QuestionSchema(subtopics []string, perSubtopic int) *llm.Schema {
	qProps := make(map[string]any, perSubtopic)
	qRequired := make([]any, perSubtopic)
	for i := range perSubtopic {
		key := fmt.Sprintf("q%d", i+1)
		qProps[key] = map[string]any{"type": "string"}
		qRequired[i] = key
	}

	props := make(map[string]any, len(subtopics))
	for _, s := range subtopics {
		props[s] = map[string]any{
			"type":       "object",
			"properties": qProps,
			"required":   qRequired,
		}
	}

	return &llm.Schema{
		Name:        "quiz-questions",
		Description: "Short-answer questions keyed by subtopic",
		Definition: map[string]any{
			"type":       "object",
			"properties": props,
		},
		Dynamic: true,
	}
}
