package evaluator

import "github.com/abhisek/quizgate/internal/llm"

var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "A grade and short feedback for one answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "Correctness from 0 to 1",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Feedback for the learner",
			},
		},
		"required":             []any{"score", "feedback"},
		"additionalProperties": false,
	},
}
