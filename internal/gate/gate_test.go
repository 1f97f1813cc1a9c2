package gate

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgate/internal/llm"
	"github.com/abhisek/quizgate/internal/quiz"
)

func round(subtopics []string, scores map[string][]float64) *quiz.RoundResult {
	var records []quiz.AnswerRecord
	for _, s := range subtopics {
		for _, score := range scores[s] {
			records = append(records, quiz.AnswerRecord{Round: 1, Subtopic: s, Score: score})
		}
	}
	return quiz.NewRoundResult(subtopics, records)
}

func TestDecide(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"advance":false,"reason":" Work on recursion. ","additional_subtopics":["Recursion"," ","Memoization"]}`)})
	d := New(mock, DefaultConfig())

	in := InputFor("Algorithms", quiz.LevelBeginner, round([]string{"Sorting", "Recursion"}, map[string][]float64{
		"Sorting": {0.9}, "Recursion": {0.4},
	}))
	v, err := d.Decide(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, v.Advance)
	assert.False(t, v.OracleAdvance)
	assert.Equal(t, "Work on recursion.", v.Reason)
	assert.Equal(t, []string{"Recursion", "Memoization"}, v.AdditionalSubtopics)

	msg := mock.Calls[0].Messages[0].Content
	assert.Contains(t, msg, "- Sorting: 0.90\n- Recursion: 0.40\n")
	assert.Contains(t, msg, "Overall average: 0.65")
	assert.Contains(t, mock.Calls[0].System, "below 0.7")
}

func TestDecide_Malformed(t *testing.T) {
	for _, content := range []string{
		`{"reason":"x","additional_subtopics":[]}`,
		`{"advance":"yes","reason":"x","additional_subtopics":[]}`,
		`{"advance":true,"additional_subtopics":[]}`,
		`{"advance":true,"reason":"x","additional_subtopics":[1]}`,
		`advance`,
	} {
		mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(content)})
		_, err := New(mock, DefaultConfig()).Decide(context.Background(), Input{Topic: "x"})
		assert.True(t, quiz.IsMalformedResponse(err), "%s: %v", content, err)
	}
}

func TestDecide_Unavailable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: context.DeadlineExceeded})
	_, err := New(mock, DefaultConfig()).Decide(context.Background(), Input{Topic: "x"})
	require.True(t, quiz.IsOracleUnavailable(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// Scenario A: everything passes and the oracle agrees.
func TestRevalidate_AllPass(t *testing.T) {
	res := round([]string{"X", "Y"}, map[string][]float64{"X": {0.8}, "Y": {0.9}})
	v := Revalidate(quiz.GateVerdict{Advance: true, AdditionalSubtopics: []string{}}, res)

	assert.True(t, v.Advance)
	assert.Empty(t, v.AdditionalSubtopics)
	assert.False(t, v.Overridden)
}

// Scenario B: the oracle forgets a weak subtopic and tries to advance.
func TestRevalidate_WeakSubtopicForcesRemediation(t *testing.T) {
	res := round([]string{"X", "Y"}, map[string][]float64{"X": {0.5}, "Y": {0.9}})
	v := Revalidate(quiz.GateVerdict{Advance: true, Reason: "looks fine"}, res)

	assert.False(t, v.Advance)
	assert.True(t, v.OracleAdvance)
	assert.True(t, v.Overridden)
	assert.Equal(t, []string{"X"}, v.AdditionalSubtopics)
	assert.Equal(t, "looks fine", v.Reason)
}

func TestRevalidate_PassingSubtopicRemoved(t *testing.T) {
	res := round([]string{"Joins", "Indexes"}, map[string][]float64{"Joins": {0.7}, "Indexes": {1}})
	v := Revalidate(quiz.GateVerdict{Advance: false, AdditionalSubtopics: []string{"joins"}}, res)

	assert.Empty(t, v.AdditionalSubtopics)
	assert.True(t, v.Advance, "all three conditions hold, so advance is forced")
	assert.True(t, v.Overridden)
}

func TestRevalidate_KeepsCoverageGaps(t *testing.T) {
	res := round([]string{"Joins", "Indexes"}, map[string][]float64{"Joins": {0.9}, "Indexes": {0.4}})
	v := Revalidate(quiz.GateVerdict{
		Advance:             false,
		AdditionalSubtopics: []string{"Window functions", "indexes ", "Window Functions"},
	}, res)

	assert.False(t, v.Advance)
	assert.Equal(t, []string{"Window functions", "Indexes"}, v.AdditionalSubtopics)
	assert.False(t, v.Overridden, "same set modulo case and whitespace")
}

func TestRevalidate_CoverageGapBlocksAdvance(t *testing.T) {
	res := round([]string{"Joins"}, map[string][]float64{"Joins": {1}})
	v := Revalidate(quiz.GateVerdict{Advance: true, AdditionalSubtopics: []string{"CTEs"}}, res)

	assert.False(t, v.Advance)
	assert.Equal(t, []string{"CTEs"}, v.AdditionalSubtopics)
	assert.True(t, v.Overridden)
}

func TestRevalidate_UnansweredSubtopicIsWeak(t *testing.T) {
	res := round([]string{"Joins", "Views"}, map[string][]float64{"Joins": {1}})
	v := Revalidate(quiz.GateVerdict{Advance: true}, res)

	assert.False(t, v.Advance)
	assert.Equal(t, []string{"Views"}, v.AdditionalSubtopics)
}

func TestAdmissible_EmptyRound(t *testing.T) {
	assert.False(t, Admissible(quiz.NewRoundResult(nil, nil)))
}

// For random rounds and random oracle verdicts, the revalidated verdict
// lists exactly the weak scored subtopics and advances exactly when the
// scores allow it.
func TestRevalidate_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	names := []string{"A", "B", "C", "D"}

	for i := range 500 {
		n := 1 + rng.IntN(len(names))
		subtopics := names[:n]
		scores := make(map[string][]float64)
		for _, s := range subtopics {
			for range 1 + rng.IntN(3) {
				scores[s] = append(scores[s], float64(rng.IntN(11))/10)
			}
		}
		res := round(subtopics, scores)

		var proposed []string
		for _, s := range subtopics {
			if rng.IntN(2) == 0 {
				proposed = append(proposed, s)
			}
		}
		v := Revalidate(quiz.GateVerdict{Advance: rng.IntN(2) == 0, AdditionalSubtopics: proposed}, res)

		for _, s := range subtopics {
			avg, _ := res.SubtopicAverage(s)
			if avg < quiz.PassThreshold {
				assert.Contains(t, v.AdditionalSubtopics, s, "case %d", i)
			} else {
				assert.NotContains(t, v.AdditionalSubtopics, s, "case %d", i)
			}
		}

		want := res.OverallAverage() >= quiz.PassThreshold && len(v.AdditionalSubtopics) == 0
		for _, s := range subtopics {
			if avg, _ := res.SubtopicAverage(s); avg < quiz.PassThreshold {
				want = false
			}
		}
		assert.Equal(t, want, v.Advance, "case %d", i)
	}
}
