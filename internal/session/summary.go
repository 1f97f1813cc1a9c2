package session

import "github.com/abhisek/quizgate/internal/quiz"

// SubtopicSummary is one row of the round summary.
type SubtopicSummary struct {
	Subtopic string  `json:"subtopic"`
	Average  float64 `json:"average"`
	Answered int     `json:"answered"`
	Passed   bool    `json:"passed"`
}

// Summary holds what the learner sees after a round is scored.
type Summary struct {
	Topic     string              `json:"topic"`
	Level     quiz.Level          `json:"level"`
	Round     int                 `json:"round"`
	Overall   float64             `json:"overall"`
	Subtopics []SubtopicSummary   `json:"subtopics"`
	Answers   []quiz.AnswerRecord `json:"answers"`

	// Verdict and Outcome are set once the gate has been resolved.
	Verdict *quiz.GateVerdict `json:"verdict,omitempty"`
	Outcome Outcome           `json:"outcome,omitempty"`
}

// BuildSummary creates a Summary of the current round. It returns nil
// when the round has no answers yet.
func BuildSummary(st *State) *Summary {
	if st.round == nil || len(st.round.Records) == 0 {
		return nil
	}
	result := st.RoundResult()

	rows := make([]SubtopicSummary, 0, len(result.Subtopics()))
	for _, s := range result.Subtopics() {
		avg, ok := result.SubtopicAverage(s)
		rows = append(rows, SubtopicSummary{
			Subtopic: s,
			Average:  avg,
			Answered: len(result.Records(s)),
			Passed:   ok && avg >= quiz.PassThreshold,
		})
	}

	sum := &Summary{
		Topic:     st.topic,
		Level:     st.round.Level,
		Round:     st.round.Number,
		Overall:   result.OverallAverage(),
		Subtopics: rows,
		Answers:   st.round.clone().Records,
	}
	// The verdict belongs to this round only after the gate has run on it.
	if st.phase == PhaseRoundPending || st.phase == PhaseCompleted {
		sum.Verdict = st.LastVerdict()
		sum.Outcome = st.lastOutcome
	}
	return sum
}
