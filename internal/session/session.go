// Package session runs the level-gated quiz loop.
//
// A session moves through round_pending → answering → awaiting_gate and
// back to round_pending until the learner passes the last level. Every
// transition is applied on success only: the State passed in is never
// modified, and on error the caller still holds the state it had.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizgate/internal/evaluator"
	"github.com/abhisek/quizgate/internal/gate"
	"github.com/abhisek/quizgate/internal/llm"
	"github.com/abhisek/quizgate/internal/planner"
	"github.com/abhisek/quizgate/internal/quiz"
	"github.com/abhisek/quizgate/internal/quizgen"
	"github.com/abhisek/quizgate/internal/store"
)

type SubtopicPlanner interface {
	Plan(ctx context.Context, input planner.PlanInput) ([]string, error)
}

type QuestionComposer interface {
	Compose(ctx context.Context, input quizgen.ComposeInput) ([]quiz.Question, error)
}

type AnswerEvaluator interface {
	Evaluate(ctx context.Context, input evaluator.EvalInput) (evaluator.Evaluation, error)
}

type GateDecider interface {
	Decide(ctx context.Context, input gate.Input) (quiz.GateVerdict, error)
}

// GateRecorder receives an audit record for every resolved gate.
// store.EventRepo satisfies it.
type GateRecorder interface {
	AppendGateEvent(ctx context.Context, data store.GateEventData) error
}

// Components are the four oracle-backed collaborators of a session.
type Components struct {
	Planner   SubtopicPlanner
	Composer  QuestionComposer
	Evaluator AnswerEvaluator
	Decider   GateDecider
}

// Config sizes the oracle components built by NewFromProvider.
type Config struct {
	Planner   planner.Config
	Composer  quizgen.Config
	Evaluator evaluator.Config
	Gate      gate.Config
}

func DefaultConfig() Config {
	return Config{
		Planner:   planner.DefaultConfig(),
		Composer:  quizgen.DefaultConfig(),
		Evaluator: evaluator.DefaultConfig(),
		Gate:      gate.DefaultConfig(),
	}
}

// Submission is the learner's answers to a round, in question order.
type Submission struct {
	RoundID string   `json:"round_id"`
	Answers []string `json:"answers"`
}

type Option func(*Orchestrator)

// WithRecorder stores an audit record for every resolved gate.
func WithRecorder(r GateRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator sequences the oracle components for a session. It holds no
// per-session state and is safe for concurrent use by independent
// sessions. Calls for one session must not overlap.
type Orchestrator struct {
	planner   SubtopicPlanner
	composer  QuestionComposer
	evaluator AnswerEvaluator
	decider   GateDecider
	recorder  GateRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func New(c Components, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		planner:   c.Planner,
		composer:  c.Composer,
		evaluator: c.Evaluator,
		decider:   c.Decider,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "session")
	return o
}

// NewFromProvider builds an Orchestrator whose components all talk to
// provider.
func NewFromProvider(provider llm.Provider, cfg Config, opts ...Option) *Orchestrator {
	return New(Components{
		Planner:   planner.New(provider, cfg.Planner),
		Composer:  quizgen.New(provider, cfg.Composer),
		Evaluator: evaluator.New(provider, cfg.Evaluator),
		Decider:   gate.New(provider, cfg.Gate),
	}, opts...)
}

// StartTopic begins a new session on topic at the beginner level. It
// makes no oracle calls.
func (o *Orchestrator) StartTopic(topic string) (*State, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, &quiz.InvalidTransitionError{
			Op:     "start_topic",
			Phase:  string(PhaseAwaitingTopic),
			Reason: "topic is blank",
		}
	}

	now := o.now().UTC()
	st := &State{
		id:        uuid.NewString(),
		topic:     topic,
		level:     quiz.LevelBeginner,
		phase:     PhaseRoundPending,
		createdAt: now,
		updatedAt: now,
	}
	o.logger.Info("session started", "session_id", st.id, "topic", topic)
	return st, nil
}

// StartRound plans (unless a pending subtopic set exists) and composes
// the next round. Called while answering, it replaces the unanswered round
// with fresh questions on the same subtopics.
func (o *Orchestrator) StartRound(ctx context.Context, st *State) (*State, error) {
	phase := st.Phase()
	if phase != PhaseRoundPending && phase != PhaseAnswering {
		return nil, &quiz.InvalidTransitionError{Op: "start_round", Phase: string(phase)}
	}
	ctx = llm.WithSessionID(ctx, st.id)

	var (
		subtopics   []string
		remediation bool
	)
	switch {
	case phase == PhaseAnswering:
		subtopics = slices.Clone(st.round.Subtopics)
		remediation = st.round.Remediation
	case len(st.pending) > 0:
		subtopics = slices.Clone(st.pending)
		remediation = st.lastOutcome == OutcomeRemediate ||
			(st.lastOutcome == OutcomeRetry && st.round != nil && st.round.Remediation)
	default:
		planned, err := o.planner.Plan(ctx, planner.PlanInput{
			Topic:   st.topic,
			Level:   st.level,
			History: st.coveredSubtopics(),
		})
		if err != nil {
			return nil, fmt.Errorf("plan subtopics: %w", err)
		}
		subtopics = planned
	}

	questions, err := o.composer.Compose(ctx, quizgen.ComposeInput{
		Topic:          st.topic,
		Level:          st.level,
		Subtopics:      subtopics,
		Suggestions:    st.suggestions,
		PriorQuestions: st.askedQuestions(),
	})
	if err != nil {
		return nil, fmt.Errorf("compose quiz: %w", err)
	}

	next := st.clone()
	next.round = &Round{
		ID:          uuid.NewString(),
		Number:      st.roundsPlayed + 1,
		Level:       st.level,
		Subtopics:   subtopics,
		Questions:   questions,
		Remediation: remediation,
	}
	next.pending = nil
	next.phase = PhaseAnswering
	next.updatedAt = o.now().UTC()

	o.logger.InfoContext(ctx, "round started",
		"session_id", st.id,
		"level", st.level.String(),
		"round", next.round.Number,
		"subtopics", subtopics,
		"questions", len(questions),
		"remediation", remediation)
	return next, nil
}

// SubmitAnswers scores every answer of the current round, one oracle call
// at a time, and moves the session to the gate.
func (o *Orchestrator) SubmitAnswers(ctx context.Context, st *State, sub Submission) (*State, error) {
	phase := st.Phase()
	if phase != PhaseAnswering {
		return nil, &quiz.InvalidTransitionError{Op: "submit_answers", Phase: string(phase)}
	}
	if st.round == nil {
		return nil, &quiz.InvalidTransitionError{Op: "submit_answers", Phase: string(phase), Reason: "no round issued"}
	}
	if sub.RoundID != st.round.ID {
		return nil, &quiz.InvalidTransitionError{
			Op:     "submit_answers",
			Phase:  string(phase),
			Reason: fmt.Sprintf("answers are for round %q, current round is %q", sub.RoundID, st.round.ID),
		}
	}
	if len(sub.Answers) != len(st.round.Questions) {
		return nil, &quiz.InvalidTransitionError{
			Op:     "submit_answers",
			Phase:  string(phase),
			Reason: fmt.Sprintf("got %d answers for %d questions", len(sub.Answers), len(st.round.Questions)),
		}
	}
	ctx = llm.WithSessionID(ctx, st.id)

	records := make([]quiz.AnswerRecord, 0, len(sub.Answers))
	for i, q := range st.round.Questions {
		answer := strings.TrimSpace(sub.Answers[i])
		eval, err := o.evaluator.Evaluate(ctx, evaluator.EvalInput{
			Topic:    st.topic,
			Level:    st.level,
			Question: q.Text,
			Answer:   answer,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate answer %d: %w", i+1, err)
		}
		records = append(records, quiz.AnswerRecord{
			Round:    st.round.Number,
			Level:    st.level,
			Subtopic: q.Subtopic,
			Question: q.Text,
			Answer:   answer,
			Score:    eval.Score,
			Feedback: eval.Feedback,
		})
	}

	next := st.clone()
	next.round.Records = records
	next.evaluationLog = append(next.evaluationLog, records...)
	next.roundsPlayed++
	next.phase = PhaseAwaitingGate
	next.updatedAt = o.now().UTC()

	o.logger.InfoContext(ctx, "answers scored",
		"session_id", st.id,
		"level", st.level.String(),
		"round", st.round.Number,
		"overall", next.RoundResult().OverallAverage())
	return next, nil
}

// ResolveGate asks the oracle whether the learner may advance, checks the
// verdict against the scores and applies the first matching branch:
// retry on a low overall average, remediate when subtopics remain,
// complete at the last level, advance otherwise when allowed, else retry.
func (o *Orchestrator) ResolveGate(ctx context.Context, st *State) (*State, error) {
	phase := st.Phase()
	if phase != PhaseAwaitingGate {
		return nil, &quiz.InvalidTransitionError{Op: "resolve_gate", Phase: string(phase)}
	}
	if st.round == nil {
		return nil, &quiz.InvalidTransitionError{Op: "resolve_gate", Phase: string(phase), Reason: "no round issued"}
	}
	ctx = llm.WithSessionID(ctx, st.id)

	result := st.RoundResult()
	proposed, err := o.decider.Decide(ctx, gate.InputFor(st.topic, st.level, result))
	if err != nil {
		return nil, fmt.Errorf("decide gate: %w", err)
	}
	verdict := gate.Revalidate(proposed, result)
	overall := result.OverallAverage()

	next := st.clone()
	subtopics := slices.Clone(st.round.Subtopics)

	var outcome Outcome
	switch {
	case overall <= quiz.PassThreshold:
		outcome = OutcomeRetry
		next.pending = subtopics
		if verdict.Advance {
			verdict.Advance = false
			verdict.Overridden = true
		}
	case len(verdict.AdditionalSubtopics) > 0:
		outcome = OutcomeRemediate
		next.topicHistory = append(next.topicHistory, subtopics)
		next.suggestions = slices.Clone(verdict.AdditionalSubtopics)
		next.pending = slices.Clone(verdict.AdditionalSubtopics)
	case verdict.Advance && st.level.IsLast():
		outcome = OutcomeComplete
		next.topicHistory = append(next.topicHistory, subtopics)
		next.suggestions = nil
		next.pending = nil
	case verdict.Advance:
		outcome = OutcomeAdvance
		next.topicHistory = append(next.topicHistory, subtopics)
		next.level, _ = st.level.Next()
		next.suggestions = nil
		next.pending = nil
	default:
		outcome = OutcomeRetry
		next.pending = subtopics
	}

	next.lastVerdict = &verdict
	next.lastOutcome = outcome
	next.phase = PhaseRoundPending
	if outcome == OutcomeComplete {
		next.phase = PhaseCompleted
	}
	next.updatedAt = o.now().UTC()

	o.logger.InfoContext(ctx, "gate resolved",
		"session_id", st.id,
		"level", st.level.String(),
		"round", st.round.Number,
		"overall", overall,
		"oracle_advance", verdict.OracleAdvance,
		"advance", verdict.Advance,
		"overridden", verdict.Overridden,
		"outcome", string(outcome))
	o.record(ctx, st, overall, verdict, outcome)

	return next, nil
}

func (o *Orchestrator) record(ctx context.Context, st *State, overall float64, v quiz.GateVerdict, outcome Outcome) {
	if o.recorder == nil {
		return
	}
	err := o.recorder.AppendGateEvent(ctx, store.GateEventData{
		SessionID:           st.id,
		Topic:               st.topic,
		Level:               st.level.String(),
		Round:               st.round.Number,
		Overall:             overall,
		OracleAdvance:       v.OracleAdvance,
		Advance:             v.Advance,
		Overridden:          v.Overridden,
		Reason:              v.Reason,
		AdditionalSubtopics: v.AdditionalSubtopics,
		Outcome:             string(outcome),
	})
	if err != nil {
		o.logger.WarnContext(ctx, "failed to record gate event", "session_id", st.id, "error", err)
	}
}
