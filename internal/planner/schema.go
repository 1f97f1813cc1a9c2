package planner

import "github.com/abhisek/quizgate/internal/llm"

// PlanSchema is the shape of a subtopic plan reply. The count is checked
// locally so that the schema stays valid for strict providers.
var PlanSchema = &llm.Schema{
	Name:        "subtopic-plan",
	Description: "The subtopics a quiz round should cover",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subtopics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Subtopic names, most important first",
			},
		},
		"required":             []any{"subtopics"},
		"additionalProperties": false,
	},
	Strict: true,
}
