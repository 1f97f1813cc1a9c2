package quiz

// PassThreshold is the minimum average score, per subtopic and overall,
// required to pass a level gate.
const PassThreshold = 0.7

// Question is a single short-answer question generated for a round.
// It never carries an answer key.
type Question struct {
	Subtopic string `json:"subtopic"`
	Text     string `json:"text"`
}

// AnswerRecord is the evaluated answer to one question. Records are
// created once per question per round and never modified.
type AnswerRecord struct {
	// Round is the session-wide round number the record belongs to.
	Round int `json:"round"`

	// Level is the level the question was asked at.
	Level Level `json:"level"`

	Subtopic string `json:"subtopic"`
	Question string `json:"question"`

	// Answer is the learner's answer. Empty means the learner skipped.
	Answer string `json:"answer"`

	// Score is the oracle's grade in [0, 1].
	Score float64 `json:"score"`

	Feedback string `json:"feedback"`
}

// GateVerdict is the decision taken at the end of a round.
type GateVerdict struct {
	// Advance is the admissibility decision after re-validation.
	Advance bool `json:"advance"`

	// Reason is the oracle's rationale.
	Reason string `json:"reason"`

	// AdditionalSubtopics still need coverage before the learner may advance.
	AdditionalSubtopics []string `json:"additional_subtopics"`

	// OracleAdvance is the advance flag as the oracle returned it.
	OracleAdvance bool `json:"oracle_advance"`

	// Overridden is true when re-validation changed the oracle's verdict
	// (its advance flag or its additional subtopic list).
	Overridden bool `json:"overridden"`
}
