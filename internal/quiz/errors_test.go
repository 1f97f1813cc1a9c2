package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/abhisek/quizgate/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestOracleFailure_Classification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantMalformed bool
	}{
		{"invalid response", &llm.ErrInvalidResponse{Content: json.RawMessage(`nope`), Err: errors.New("bad")}, true},
		{"max tokens", &llm.ErrMaxTokensExceeded{Content: json.RawMessage(`{"a":`)}, true},
		{"unavailable", &llm.ErrProviderUnavailable{Err: errors.New("down")}, false},
		{"rate limit", &llm.ErrRateLimit{Err: errors.New("429")}, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := OracleFailure(RoleGate, tt.err)
			assert.Equal(t, tt.wantMalformed, IsMalformedResponse(err))
			assert.Equal(t, !tt.wantMalformed, IsOracleUnavailable(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), RoleGate)
		})
	}
}

func TestOracleFailure_KeepsContent(t *testing.T) {
	err := OracleFailure(RoleComposer, &llm.ErrInvalidResponse{Content: json.RawMessage(`oops`), Err: errors.New("bad")})
	var mal *MalformedResponseError
	if assert.ErrorAs(t, err, &mal) {
		assert.Equal(t, "oops", string(mal.Content))
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := error(&InvalidTransitionError{Op: "SubmitAnswers", Phase: "round_pending", Reason: "no questions issued"})
	assert.True(t, IsInvalidTransition(err))
	assert.False(t, IsMalformedResponse(err))
	assert.Equal(t, "invalid transition SubmitAnswers in phase round_pending: no questions issued", err.Error())

	noPhase := &InvalidTransitionError{Op: "compose_quiz", Reason: "no subtopics to compose"}
	assert.Equal(t, "invalid transition compose_quiz: no subtopics to compose", noPhase.Error())
}
