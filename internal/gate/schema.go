package gate

import "github.com/abhisek/quizgate/internal/llm"

var VerdictSchema = &llm.Schema{
	Name:        "gate-verdict",
	Description: "Whether the learner advances, and what still needs coverage",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"advance": map[string]any{
				"type": "boolean",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Short rationale for the learner",
			},
			"additional_subtopics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Weak subtopics and coverage gaps still to study at this level",
			},
		},
		"required":             []any{"advance", "reason", "additional_subtopics"},
		"additionalProperties": false,
	},
	Strict: true,
}
