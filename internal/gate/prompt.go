package gate

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizgate/internal/quiz"
)

var systemPrompt = fmt.Sprintf(`You decide whether a learner may advance to the next level of a quiz.

Rules:
- Never advance if any subtopic has an average score below %[1]v.
- The overall average must be at least %[1]v, but that alone is not enough.
- Only advance when every subtopic scores at least %[1]v and there are no additional subtopics left to cover.
- List every subtopic with an average below %[1]v in additional_subtopics.
- Also judge whether the subtopics covered so far are enough to master the topic at this level. If they are not, add the missing subtopics to additional_subtopics.
- Give a short reason addressed to the learner.
- Respond with a JSON object of the form {"advance": true|false, "reason": "...", "additional_subtopics": ["..."]}.`, quiz.PassThreshold)

func buildUserMessage(input Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	fmt.Fprintf(&b, "Level: %s\n", input.Level)

	b.WriteString("\nSubtopic average scores:\n")
	for _, s := range input.Subtopics {
		fmt.Fprintf(&b, "- %s: %.2f\n", s, input.Averages[s])
	}
	fmt.Fprintf(&b, "\nOverall average: %.2f", input.Overall)

	return b.String()
}
