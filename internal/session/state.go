package session

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/quizgate/internal/quiz"
)

// Phase is where a session is in the level-gated loop.
type Phase string

const (
	PhaseAwaitingTopic Phase = "awaiting_topic" // No topic chosen yet
	PhaseRoundPending  Phase = "round_pending"  // Ready to plan and compose a round
	PhaseAnswering     Phase = "answering"      // Questions shown, waiting for answers
	PhaseAwaitingGate  Phase = "awaiting_gate"  // Answers scored, gate not resolved
	PhaseCompleted     Phase = "completed"      // Passed the last level
)

// Outcome is the branch taken by the last gate resolution.
type Outcome string

const (
	OutcomeRetry     Outcome = "retry"
	OutcomeRemediate Outcome = "remediate"
	OutcomeAdvance   Outcome = "advance"
	OutcomeComplete  Outcome = "complete"
)

// Round is a single quiz round: the subtopics it covers, the questions
// asked, and the answer records once submitted.
type Round struct {
	ID        string              `json:"id"`
	Number    int                 `json:"number"`
	Level     quiz.Level          `json:"level"`
	Subtopics []string            `json:"subtopics"`
	Questions []quiz.Question     `json:"questions"`
	Records   []quiz.AnswerRecord `json:"records,omitempty"`

	// Remediation is true when the subtopics came from a gate verdict
	// rather than a fresh plan.
	Remediation bool `json:"remediation,omitempty"`
}

func (r *Round) clone() *Round {
	if r == nil {
		return nil
	}
	c := *r
	c.Subtopics = slices.Clone(r.Subtopics)
	c.Questions = slices.Clone(r.Questions)
	c.Records = slices.Clone(r.Records)
	return &c
}

// State is one learner's session. It is a value: the orchestrator never
// modifies a State it was given and returns a new one on every successful
// transition. Use the accessors to read it.
type State struct {
	id        string
	topic     string
	level     quiz.Level
	phase     Phase
	createdAt time.Time
	updatedAt time.Time

	// topicHistory holds the subtopic sets folded in by remediation and
	// advancement, oldest first.
	topicHistory [][]string

	evaluationLog []quiz.AnswerRecord
	suggestions   []string

	round   *Round
	pending []string

	lastVerdict  *quiz.GateVerdict
	lastOutcome  Outcome
	roundsPlayed int
}

func (s *State) clone() *State {
	c := *s
	if s.topicHistory != nil {
		c.topicHistory = make([][]string, len(s.topicHistory))
		for i, set := range s.topicHistory {
			c.topicHistory[i] = slices.Clone(set)
		}
	}
	c.evaluationLog = slices.Clone(s.evaluationLog)
	c.suggestions = slices.Clone(s.suggestions)
	c.pending = slices.Clone(s.pending)
	c.round = s.round.clone()
	if s.lastVerdict != nil {
		v := *s.lastVerdict
		v.AdditionalSubtopics = slices.Clone(v.AdditionalSubtopics)
		c.lastVerdict = &v
	}
	return &c
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State { return s.clone() }

func (s *State) ID() string    { return s.id }
func (s *State) Topic() string { return s.topic }

func (s *State) Level() quiz.Level { return s.level }

func (s *State) Phase() Phase {
	if s == nil || s.phase == "" {
		return PhaseAwaitingTopic
	}
	return s.phase
}

func (s *State) Completed() bool { return s.phase == PhaseCompleted }

func (s *State) CreatedAt() time.Time { return s.createdAt }
func (s *State) UpdatedAt() time.Time { return s.updatedAt }

// Round returns a copy of the current round, or nil before the first one.
func (s *State) Round() *Round { return s.round.clone() }

// Questions returns the questions of the current round.
func (s *State) Questions() []quiz.Question {
	if s.round == nil {
		return nil
	}
	return slices.Clone(s.round.Questions)
}

// RoundResult aggregates the current round's answers. It is empty until
// answers have been submitted.
func (s *State) RoundResult() *quiz.RoundResult {
	if s.round == nil {
		return quiz.NewRoundResult(nil, nil)
	}
	return quiz.NewRoundResult(s.round.Subtopics, s.round.Records)
}

// LastVerdict returns the revalidated verdict of the last gate, or nil.
func (s *State) LastVerdict() *quiz.GateVerdict {
	if s.lastVerdict == nil {
		return nil
	}
	v := *s.lastVerdict
	v.AdditionalSubtopics = slices.Clone(v.AdditionalSubtopics)
	return &v
}

func (s *State) LastOutcome() Outcome { return s.lastOutcome }

// RoundsPlayed counts rounds whose answers were submitted.
func (s *State) RoundsPlayed() int { return s.roundsPlayed }

func (s *State) TopicHistory() [][]string {
	return s.clone().topicHistory
}

func (s *State) EvaluationLog() []quiz.AnswerRecord { return slices.Clone(s.evaluationLog) }

// Suggestions are the subtopics the last gate asked to remediate.
func (s *State) Suggestions() []string { return slices.Clone(s.suggestions) }

// PendingSubtopics is the subtopic set the next round will use instead of
// a fresh plan. Empty means the next round is planned.
func (s *State) PendingSubtopics() []string { return slices.Clone(s.pending) }

// coveredSubtopics flattens the topic history in order.
func (s *State) coveredSubtopics() []string {
	var out []string
	for _, set := range s.topicHistory {
		out = append(out, set...)
	}
	return out
}

func (s *State) askedQuestions() []string {
	out := make([]string, 0, len(s.evaluationLog))
	for _, rec := range s.evaluationLog {
		out = append(out, rec.Question)
	}
	return out
}

type stateJSON struct {
	ID            string              `json:"id"`
	Topic         string              `json:"topic"`
	Level         quiz.Level          `json:"level"`
	Phase         Phase               `json:"phase"`
	TopicHistory  [][]string          `json:"topic_history"`
	EvaluationLog []quiz.AnswerRecord `json:"evaluation_log"`
	Suggestions   []string            `json:"suggestions,omitempty"`
	Round         *Round              `json:"round,omitempty"`
	Pending       []string            `json:"pending_subtopics,omitempty"`
	LastVerdict   *quiz.GateVerdict   `json:"last_verdict,omitempty"`
	LastOutcome   Outcome             `json:"last_outcome,omitempty"`
	RoundsPlayed  int                 `json:"rounds_played"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		ID:            s.id,
		Topic:         s.topic,
		Level:         s.level,
		Phase:         s.Phase(),
		TopicHistory:  s.topicHistory,
		EvaluationLog: s.evaluationLog,
		Suggestions:   s.suggestions,
		Round:         s.round,
		Pending:       s.pending,
		LastVerdict:   s.lastVerdict,
		LastOutcome:   s.lastOutcome,
		RoundsPlayed:  s.roundsPlayed,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	})
}

func (s *State) UnmarshalJSON(b []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if (raw.Phase == PhaseAnswering || raw.Phase == PhaseAwaitingGate) && raw.Round == nil {
		return fmt.Errorf("session %s: phase %s without a round", raw.ID, raw.Phase)
	}
	*s = State{
		id:            raw.ID,
		topic:         raw.Topic,
		level:         raw.Level,
		phase:         raw.Phase,
		topicHistory:  raw.TopicHistory,
		evaluationLog: raw.EvaluationLog,
		suggestions:   raw.Suggestions,
		round:         raw.Round,
		pending:       raw.Pending,
		lastVerdict:   raw.LastVerdict,
		lastOutcome:   raw.LastOutcome,
		roundsPlayed:  raw.RoundsPlayed,
		createdAt:     raw.CreatedAt,
		updatedAt:     raw.UpdatedAt,
	}
	return nil
}
