package planner

import (
	"fmt"
	"strings"
)

func systemPrompt(count int) string {
	return fmt.Sprintf(`You plan study rounds for an adaptive quiz.

Rules:
- Given a topic and a difficulty level, list exactly %d subtopics that matter most for mastering the topic at that level.
- Each subtopic is a short noun phrase, a few words long, with no numbering.
- Subtopics must be distinct from each other.
- Prefer subtopics the learner has not covered yet; the covered list is a hint, not a ban.
- Respond with a JSON object of the form {"subtopics": ["...", "..."]}.`, count)
}

func buildUserMessage(input PlanInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	fmt.Fprintf(&b, "Level: %s\n", input.Level)

	b.WriteString("\nAlready covered:\n")
	if len(input.History) == 0 {
		b.WriteString("None")
	} else {
		b.WriteString(strings.Join(input.History, "\n"))
	}

	return b.String()
}
