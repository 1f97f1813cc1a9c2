package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgate/internal/llm"
	"github.com/abhisek/quizgate/internal/quiz"
	"github.com/abhisek/quizgate/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events []store.GateEventData
	err    error
}

func (r *recorder) AppendGateEvent(_ context.Context, data store.GateEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func content(s string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(s)}
}

func planReply(subtopics ...string) llm.MockResponse {
	b, _ := json.Marshal(map[string]any{"subtopics": subtopics})
	return content(string(b))
}

func composeReply(subtopics ...string) llm.MockResponse {
	m := make(map[string]map[string]string)
	for _, s := range subtopics {
		m[s] = map[string]string{"q1": "Explain " + s + "."}
	}
	b, _ := json.Marshal(m)
	return content(string(b))
}

func scoreReply(score float64) llm.MockResponse {
	return content(fmt.Sprintf(`{"score":%v,"feedback":"graded %v"}`, score, score))
}

func verdictReply(advance bool, additional ...string) llm.MockResponse {
	b, _ := json.Marshal(map[string]any{
		"advance":              advance,
		"reason":               "because",
		"additional_subtopics": append([]string{}, additional...),
	})
	return content(string(b))
}

var testClock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func newTestOrchestrator(opts ...Option) (*Orchestrator, *llm.MockProvider) {
	mock := llm.NewMockProvider()
	cfg := DefaultConfig()
	cfg.Planner.SubtopicCount = 2
	cfg.Composer.QuestionsPerSubtopic = 1
	opts = append([]Option{WithClock(testClock)}, opts...)
	return NewFromProvider(mock, cfg, opts...), mock
}

// answerAll submits one answer per question of the current round.
func answerAll(t *testing.T, o *Orchestrator, st *State) *State {
	t.Helper()
	answers := make([]string, len(st.Questions()))
	for i := range answers {
		answers[i] = "my answer"
	}
	next, err := o.SubmitAnswers(context.Background(), st, Submission{RoundID: st.Round().ID, Answers: answers})
	require.NoError(t, err)
	return next
}

// playRound runs a whole round on st. When planned is non-empty a plan
// reply is queued first. Scores are given per question.
func playRound(t *testing.T, o *Orchestrator, mock *llm.MockProvider, st *State, planned []string, subtopics []string, scores []float64, verdict llm.MockResponse) *State {
	t.Helper()
	ctx := context.Background()

	if len(planned) > 0 {
		mock.AddResponse(planReply(planned...))
	}
	mock.AddResponse(composeReply(subtopics...))
	st, err := o.StartRound(ctx, st)
	require.NoError(t, err)
	require.Equal(t, PhaseAnswering, st.Phase())

	for _, s := range scores {
		mock.AddResponse(scoreReply(s))
	}
	st = answerAll(t, o, st)
	require.Equal(t, PhaseAwaitingGate, st.Phase())

	mock.AddResponse(verdict)
	st, err = o.ResolveGate(ctx, st)
	require.NoError(t, err)
	require.Zero(t, mock.Pending())
	return st
}

func TestStartTopic(t *testing.T) {
	o, mock := newTestOrchestrator()

	_, err := o.StartTopic("   ")
	assert.True(t, quiz.IsInvalidTransition(err))

	st, err := o.StartTopic(" Go concurrency ")
	require.NoError(t, err)
	assert.Equal(t, "Go concurrency", st.Topic())
	assert.Equal(t, quiz.LevelBeginner, st.Level())
	assert.Equal(t, PhaseRoundPending, st.Phase())
	assert.NotEmpty(t, st.ID())
	assert.Nil(t, st.LastVerdict())
	assert.Empty(t, st.Questions())
	assert.Zero(t, mock.CallCount())
}

// Scenario A: all subtopics pass and the oracle agrees.
func TestResolveGate_Advance(t *testing.T) {
	rec := &recorder{}
	o, mock := newTestOrchestrator(WithRecorder(rec))
	st, err := o.StartTopic("Go")
	require.NoError(t, err)

	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.8, 0.9}, verdictReply(true))

	assert.Equal(t, quiz.LevelIntermediate, st.Level())
	assert.Equal(t, PhaseRoundPending, st.Phase())
	assert.Equal(t, OutcomeAdvance, st.LastOutcome())
	assert.True(t, st.LastVerdict().Advance)
	assert.False(t, st.LastVerdict().Overridden)
	assert.Equal(t, [][]string{{"X", "Y"}}, st.TopicHistory())
	assert.Empty(t, st.PendingSubtopics())
	assert.Empty(t, st.Suggestions())
	assert.Len(t, st.EvaluationLog(), 2)
	assert.Equal(t, 1, st.RoundsPlayed())

	require.Len(t, rec.events, 1)
	assert.Equal(t, "advance", rec.events[0].Outcome)
	assert.Equal(t, "beginner", rec.events[0].Level)
	assert.Equal(t, 1, rec.events[0].Round)
	assert.InDelta(t, 0.85, rec.events[0].Overall, 1e-9)

	// The next round is planned afresh with the history as a hint.
	mock.AddResponse(planReply("Z", "W"))
	mock.AddResponse(composeReply("Z", "W"))
	st, err = o.StartRound(context.Background(), st)
	require.NoError(t, err)
	planMsg := mock.Calls[len(mock.Calls)-2].Messages[0].Content
	assert.Contains(t, planMsg, "Level: intermediate")
	assert.Contains(t, planMsg, "Already covered:\nX\nY")
	assert.Equal(t, quiz.LevelIntermediate, st.Round().Level)
	assert.Equal(t, 2, st.Round().Number)
}

// Scenario B: the oracle omits a weak subtopic and says advance.
func TestResolveGate_WeakSubtopicRemediates(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.6, 1.0}, verdictReply(true))

	v := st.LastVerdict()
	require.NotNil(t, v)
	assert.False(t, v.Advance)
	assert.True(t, v.OracleAdvance)
	assert.True(t, v.Overridden)
	assert.Equal(t, []string{"X"}, v.AdditionalSubtopics)

	assert.Equal(t, OutcomeRemediate, st.LastOutcome())
	assert.Equal(t, quiz.LevelBeginner, st.Level())
	assert.Equal(t, [][]string{{"X", "Y"}}, st.TopicHistory())
	assert.Equal(t, []string{"X"}, st.Suggestions())
	assert.Equal(t, []string{"X"}, st.PendingSubtopics())

	// The remediation round skips the planner.
	calls := mock.CallCount()
	mock.AddResponse(composeReply("X"))
	st, err := o.StartRound(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, calls+1, mock.CallCount())
	assert.Equal(t, []string{"X"}, st.Round().Subtopics)
	assert.True(t, st.Round().Remediation)
	assert.Contains(t, mock.Calls[calls].Messages[0].Content, "Suggested focus from the last review:\n- X\n")
	assert.Contains(t, mock.Calls[calls].Messages[0].Content, "Explain X.")
}

func TestResolveGate_LowOverallRetries(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.2, 0.9}, verdictReply(true))

	assert.Equal(t, OutcomeRetry, st.LastOutcome())
	assert.Equal(t, quiz.LevelBeginner, st.Level())
	assert.Empty(t, st.TopicHistory())
	assert.Empty(t, st.Suggestions())
	assert.Equal(t, []string{"X", "Y"}, st.PendingSubtopics())
	assert.Equal(t, []string{"X"}, st.LastVerdict().AdditionalSubtopics)

	st = playRound(t, o, mock, st, nil, []string{"X", "Y"}, []float64{0.8, 0.9}, verdictReply(true))
	assert.Equal(t, OutcomeAdvance, st.LastOutcome())
	assert.Equal(t, quiz.LevelIntermediate, st.Level())
	assert.Equal(t, [][]string{{"X", "Y"}}, st.TopicHistory())
	assert.Len(t, st.EvaluationLog(), 4)
}

func TestResolveGate_OverallAtThresholdRetries(t *testing.T) {
	rec := &recorder{}
	o, mock := newTestOrchestrator(WithRecorder(rec))
	st, _ := o.StartTopic("Go")

	// Every subtopic passes, but an overall of exactly 0.70 still retries.
	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.7, 0.7}, verdictReply(true))

	// The stored verdict agrees with the retry outcome.
	v := st.LastVerdict()
	assert.False(t, v.Advance)
	assert.True(t, v.OracleAdvance)
	assert.True(t, v.Overridden)
	require.Len(t, rec.events, 1)
	assert.False(t, rec.events[0].Advance)
	assert.Equal(t, string(OutcomeRetry), rec.events[0].Outcome)
	assert.Equal(t, OutcomeRetry, st.LastOutcome())
	assert.Equal(t, quiz.LevelBeginner, st.Level())
	assert.Equal(t, []string{"X", "Y"}, st.PendingSubtopics())
}

func TestResolveGate_CoverageGapRemediates(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.9, 0.9}, verdictReply(false, "Z"))

	assert.Equal(t, OutcomeRemediate, st.LastOutcome())
	assert.Equal(t, []string{"Z"}, st.PendingSubtopics())
	assert.False(t, st.LastVerdict().Overridden)
}

// Scenario C: passing the advanced level completes the session.
func TestResolveGate_CompletesAtAdvanced(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	for _, want := range []quiz.Level{quiz.LevelIntermediate, quiz.LevelAdvanced} {
		st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.9, 0.9}, verdictReply(true))
		require.Equal(t, want, st.Level())
	}
	st = playRound(t, o, mock, st, []string{"P", "Q"}, []string{"P", "Q"}, []float64{0.7, 1}, verdictReply(true))

	assert.Equal(t, PhaseCompleted, st.Phase())
	assert.True(t, st.Completed())
	assert.Equal(t, OutcomeComplete, st.LastOutcome())
	assert.Equal(t, quiz.LevelAdvanced, st.Level())
	assert.Len(t, st.TopicHistory(), 3)

	_, err := o.StartRound(context.Background(), st)
	assert.True(t, quiz.IsInvalidTransition(err))
}

// Scenario D: a non-JSON quiz reply fails the round and keeps the
// previous round intact.
func TestStartRound_MalformedComposeKeepsState(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	mock.AddResponse(planReply("X", "Y"))
	mock.AddResponse(composeReply("X", "Y"))
	st, err := o.StartRound(context.Background(), st)
	require.NoError(t, err)
	before, err := json.Marshal(st)
	require.NoError(t, err)

	mock.AddResponse(content(`Here are your questions: 1. What is X?`))
	next, err := o.StartRound(context.Background(), st)
	require.Error(t, err)
	assert.Nil(t, next)
	assert.True(t, quiz.IsMalformedResponse(err))

	after, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, PhaseAnswering, st.Phase())
	assert.Len(t, st.Questions(), 2)
}

func TestStartRound_ReissueKeepsSubtopics(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	mock.AddResponse(planReply("X", "Y"))
	mock.AddResponse(composeReply("X", "Y"))
	first, err := o.StartRound(context.Background(), st)
	require.NoError(t, err)

	mock.AddResponse(composeReply("X", "Y"))
	second, err := o.StartRound(context.Background(), first)
	require.NoError(t, err)

	assert.NotEqual(t, first.Round().ID, second.Round().ID)
	assert.Equal(t, first.Round().Number, second.Round().Number)
	assert.Equal(t, []string{"X", "Y"}, second.Round().Subtopics)
	assert.Equal(t, 3, mock.CallCount())

	// Answers for the replaced round are stale.
	_, err = o.SubmitAnswers(context.Background(), second, Submission{RoundID: first.Round().ID, Answers: []string{"a", "b"}})
	assert.True(t, quiz.IsInvalidTransition(err))
}

func TestStartRound_PlannerFailure(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	mock.AddResponse(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})
	_, err := o.StartRound(context.Background(), st)
	assert.True(t, quiz.IsOracleUnavailable(err))
	assert.Equal(t, PhaseRoundPending, st.Phase())
	assert.Nil(t, st.Round())
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")

	_, err := o.SubmitAnswers(ctx, st, Submission{})
	assert.True(t, quiz.IsInvalidTransition(err), "submit before start_round")
	_, err = o.ResolveGate(ctx, st)
	assert.True(t, quiz.IsInvalidTransition(err), "gate before answers")
	_, err = o.StartRound(ctx, nil)
	assert.True(t, quiz.IsInvalidTransition(err), "no session")

	mock.AddResponse(planReply("X", "Y"))
	mock.AddResponse(composeReply("X", "Y"))
	st, err = o.StartRound(ctx, st)
	require.NoError(t, err)

	_, err = o.SubmitAnswers(ctx, st, Submission{RoundID: st.Round().ID, Answers: []string{"only one"}})
	var inv *quiz.InvalidTransitionError
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, inv.Reason, "1 answers for 2 questions")

	_, err = o.ResolveGate(ctx, st)
	assert.True(t, quiz.IsInvalidTransition(err), "gate while answering")

	mock.AddResponse(scoreReply(1))
	mock.AddResponse(scoreReply(1))
	st = answerAll(t, o, st)

	_, err = o.StartRound(ctx, st)
	assert.True(t, quiz.IsInvalidTransition(err), "start_round while awaiting gate")
	_, err = o.SubmitAnswers(ctx, st, Submission{RoundID: st.Round().ID, Answers: []string{"a", "b"}})
	assert.True(t, quiz.IsInvalidTransition(err), "answers submitted twice")
	assert.Zero(t, mock.Pending())
}

func TestSubmitAnswers_EvaluatorFailureAppliesNothing(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")
	mock.AddResponse(planReply("X", "Y"))
	mock.AddResponse(composeReply("X", "Y"))
	st, err := o.StartRound(context.Background(), st)
	require.NoError(t, err)

	mock.AddResponse(scoreReply(0.9))
	mock.AddResponse(content(`{"score":1.5,"feedback":"too generous"}`))
	_, err = o.SubmitAnswers(context.Background(), st, Submission{RoundID: st.Round().ID, Answers: []string{"a", "b"}})
	require.Error(t, err)
	assert.True(t, quiz.IsMalformedResponse(err))
	assert.Contains(t, err.Error(), "evaluate answer 2")

	assert.Equal(t, PhaseAnswering, st.Phase())
	assert.Empty(t, st.EvaluationLog())
	assert.Zero(t, st.RoundsPlayed())
}

func TestSubmitAnswers_RecordsAnswers(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")
	mock.AddResponse(planReply("X", "Y"))
	mock.AddResponse(composeReply("X", "Y"))
	st, err := o.StartRound(context.Background(), st)
	require.NoError(t, err)

	mock.AddResponse(scoreReply(0.4))
	mock.AddResponse(scoreReply(0))
	st, err = o.SubmitAnswers(context.Background(), st, Submission{RoundID: st.Round().ID, Answers: []string{" channels ", ""}})
	require.NoError(t, err)

	log := st.EvaluationLog()
	require.Len(t, log, 2)
	assert.Equal(t, quiz.AnswerRecord{
		Round: 1, Level: quiz.LevelBeginner, Subtopic: "X", Question: "Explain X.",
		Answer: "channels", Score: 0.4, Feedback: "graded 0.4",
	}, log[0])
	assert.Equal(t, "", log[1].Answer)
	assert.Contains(t, mock.Calls[3].Messages[0].Content, "(no answer)")

	res := st.RoundResult()
	assert.InDelta(t, 0.2, res.OverallAverage(), 1e-9)
	assert.Equal(t, []string{"X", "Y"}, res.WeakSubtopics())
}

func TestResolveGate_OracleFailureCanBeRetried(t *testing.T) {
	rec := &recorder{}
	o, mock := newTestOrchestrator(WithRecorder(rec))
	st, _ := o.StartTopic("Go")
	mock.AddResponse(planReply("X", "Y"))
	mock.AddResponse(composeReply("X", "Y"))
	st, err := o.StartRound(context.Background(), st)
	require.NoError(t, err)
	mock.AddResponse(scoreReply(0.9))
	mock.AddResponse(scoreReply(0.9))
	st = answerAll(t, o, st)

	mock.AddResponse(llm.MockResponse{Err: context.DeadlineExceeded})
	_, err = o.ResolveGate(context.Background(), st)
	assert.True(t, quiz.IsOracleUnavailable(err))
	assert.Equal(t, PhaseAwaitingGate, st.Phase())
	assert.Empty(t, rec.events)

	mock.AddResponse(verdictReply(true))
	next, err := o.ResolveGate(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, quiz.LevelIntermediate, next.Level())
	assert.Len(t, rec.events, 1)
}

func TestResolveGate_RecorderFailureIsNotFatal(t *testing.T) {
	o, mock := newTestOrchestrator(WithRecorder(&recorder{err: errors.New("disk full")}))
	st, _ := o.StartTopic("Go")

	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{1, 1}, verdictReply(true))
	assert.Equal(t, OutcomeAdvance, st.LastOutcome())
}

func TestCancelledContextLeavesState(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")
	mock.AddResponse(planReply("X", "Y"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.StartRound(ctx, st)
	assert.True(t, quiz.IsOracleUnavailable(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, mock.Pending())
}

// Random play never lowers the level and never shrinks the history or
// the evaluation log.
func TestLevelIsMonotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	names := []string{"A", "B", "C", "D", "E"}

	for game := range 20 {
		o, mock := newTestOrchestrator()
		st, _ := o.StartTopic(fmt.Sprintf("topic %d", game))

		for range 25 {
			if st.Completed() {
				break
			}
			prevLevel := st.Level()
			prevHistory := len(st.TopicHistory())
			prevLog := len(st.EvaluationLog())

			var planned []string
			subtopics := st.PendingSubtopics()
			if len(subtopics) == 0 {
				i := rng.IntN(len(names) - 1)
				planned = names[i : i+2]
				subtopics = planned
			}
			scores := make([]float64, len(subtopics))
			for i := range scores {
				scores[i] = float64(rng.IntN(11)) / 10
			}
			var proposed []string
			if rng.IntN(3) == 0 {
				proposed = append(proposed, names[rng.IntN(len(names))])
			}

			st = playRound(t, o, mock, st, planned, subtopics, scores, verdictReply(rng.IntN(2) == 0, proposed...))

			assert.GreaterOrEqual(t, st.Level(), prevLevel)
			assert.GreaterOrEqual(t, len(st.TopicHistory()), prevHistory)
			assert.Equal(t, prevLog+len(subtopics), len(st.EvaluationLog()))
			if st.LastOutcome() == OutcomeAdvance {
				assert.Equal(t, prevLevel+1, st.Level())
			}
			if st.Completed() {
				assert.Equal(t, quiz.LevelAdvanced, st.Level())
			}
		}
	}
}

func TestBuildSummary(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")
	assert.Nil(t, BuildSummary(st))

	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.6, 1.0}, verdictReply(false, "X"))

	sum := BuildSummary(st)
	require.NotNil(t, sum)
	assert.Equal(t, 1, sum.Round)
	assert.Equal(t, quiz.LevelBeginner, sum.Level)
	assert.InDelta(t, 0.8, sum.Overall, 1e-9)
	assert.Equal(t, []SubtopicSummary{
		{Subtopic: "X", Average: 0.6, Answered: 1, Passed: false},
		{Subtopic: "Y", Average: 1.0, Answered: 1, Passed: true},
	}, sum.Subtopics)
	assert.Len(t, sum.Answers, 2)
	require.NotNil(t, sum.Verdict)
	assert.Equal(t, OutcomeRemediate, sum.Outcome)
}

func TestStateJSONRoundTrip(t *testing.T) {
	o, mock := newTestOrchestrator()
	st, _ := o.StartTopic("Go")
	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.6, 1.0}, verdictReply(false))

	rec, err := Encode(st)
	require.NoError(t, err)
	assert.Equal(t, "beginner", rec.Level)
	assert.Equal(t, "round_pending", rec.Phase)
	assert.True(t, strings.Contains(string(rec.Data), `"level":"beginner"`))

	got, err := Decode(rec)
	require.NoError(t, err)
	again, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(rec.Data), string(again))
	assert.Equal(t, st.PendingSubtopics(), got.PendingSubtopics())
	assert.Equal(t, st.LastVerdict(), got.LastVerdict())
	assert.Equal(t, st.Round().Records, got.Round().Records)
}

func TestDecode_RejectsPhaseWithoutRound(t *testing.T) {
	for _, phase := range []Phase{PhaseAnswering, PhaseAwaitingGate} {
		t.Run(string(phase), func(t *testing.T) {
			rec := &store.SessionRecord{ID: "s1", Data: []byte(fmt.Sprintf(`{"id":"s1","topic":"Go","level":"beginner","phase":%q}`, phase))}
			_, err := Decode(rec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "without a round")
		})
	}

	rec := &store.SessionRecord{ID: "s2", Data: []byte(`{"id":"s2","topic":"Go","level":"beginner","phase":"round_pending"}`)}
	st, err := Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundPending, st.Phase())
}

func TestSubmitAnswers_NoRoundIsInvalidTransition(t *testing.T) {
	o, _ := newTestOrchestrator()
	st := &State{id: "s1", topic: "Go", phase: PhaseAnswering}

	_, err := o.SubmitAnswers(context.Background(), st, Submission{RoundID: "r1", Answers: []string{"a"}})
	assert.True(t, quiz.IsInvalidTransition(err), "got %v", err)

	st = &State{id: "s1", topic: "Go", phase: PhaseAwaitingGate}
	_, err = o.ResolveGate(context.Background(), st)
	assert.True(t, quiz.IsInvalidTransition(err), "got %v", err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator()
	s := NewMemoryStore()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st, _ := o.StartTopic("Go")
	require.NoError(t, s.Save(ctx, st))

	got, err := s.Load(ctx, st.ID())
	require.NoError(t, err)
	assert.Equal(t, st, got)
	assert.NotSame(t, st, got)

	require.NoError(t, s.Delete(ctx, st.ID()))
	_, err = s.Load(ctx, st.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepoStore_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open("file:session-repo-test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	o, mock := newTestOrchestrator()
	s := NewRepoStore(db.SessionRepo())

	st, _ := o.StartTopic("Go")
	st = playRound(t, o, mock, st, []string{"X", "Y"}, []string{"X", "Y"}, []float64{0.9, 0.9}, verdictReply(true))
	require.NoError(t, s.Save(ctx, st))

	got, err := s.Load(ctx, st.ID())
	require.NoError(t, err)
	assert.Equal(t, st.Level(), got.Level())
	assert.Equal(t, st.TopicHistory(), got.TopicHistory())
	assert.Equal(t, st.EvaluationLog(), got.EvaluationLog())
	assert.Equal(t, st.LastVerdict(), got.LastVerdict())

	list, err := db.SessionRepo().ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "intermediate", list[0].Level)

	require.NoError(t, s.Delete(ctx, st.ID()))
	_, err = s.Load(ctx, st.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}
