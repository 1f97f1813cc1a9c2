package quizgen

import (
	"fmt"
	"strings"
)

func systemPrompt(perSubtopic int) string {
	return fmt.Sprintf(`You write short-answer quiz questions.

Rules:
- For every subtopic you are given, write exactly %d different short-answer question(s) about that subtopic, at the given level.
- Questions must be answerable in a sentence or two of plain text.
- Do not include answers, hints or multiple-choice options.
- Use each subtopic name exactly as given as a key. Do not add other subtopics.
- Number questions within a subtopic as "q1", "q2", and so on.
- Do not repeat any question from the "already asked" list.
- Respond with a JSON object of the form {"<subtopic>": {"q1": "...", "q2": "..."}}.`, perSubtopic)
}

func buildUserMessage(input ComposeInput, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	fmt.Fprintf(&b, "Level: %s\n", input.Level)
	fmt.Fprintf(&b, "Questions per subtopic: %d\n", cfg.QuestionsPerSubtopic)

	b.WriteString("\nSubtopics:\n")
	for _, s := range input.Subtopics {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	b.WriteString("\nSuggested focus from the last review:\n")
	if len(input.Suggestions) == 0 {
		b.WriteString("None\n")
	} else {
		for _, s := range input.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	return b.String()
}

// buildDedup lists the most recent prior questions, or "None".
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
