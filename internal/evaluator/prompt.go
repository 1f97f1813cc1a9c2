package evaluator

import (
	"fmt"
	"strings"
)

const systemPrompt = `You grade short answers in a quiz.

Rules:
- Judge the learner's answer for correctness and completeness in the context of the topic and level.
- Give a score from 0 (wrong or missing) to 1 (fully correct). Partial credit is allowed.
- An empty answer means the learner skipped the question; score it 0 and say what a good answer would cover.
- Feedback is one to three sentences addressed to the learner.
- Respond with a JSON object of the form {"score": <number>, "feedback": "..."}.`

func buildUserMessage(input EvalInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	fmt.Fprintf(&b, "Level: %s\n", input.Level)
	fmt.Fprintf(&b, "\nQuestion:\n%s\n", input.Question)

	b.WriteString("\nAnswer:\n")
	if input.Answer == "" {
		b.WriteString("(no answer)")
	} else {
		b.WriteString(input.Answer)
	}

	return b.String()
}
