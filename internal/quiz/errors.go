package quiz

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/quizgate/internal/llm"
)

// Oracle roles, used as LLM purpose labels and in error messages.
const (
	RolePlanner   = "subtopic-plan"
	RoleComposer  = "quiz-compose"
	RoleEvaluator = "answer-eval"
	RoleGate      = "gate-decision"
)

// OracleUnavailableError indicates the oracle could not be reached or did
// not answer in time. The caller may retry the same transition.
type OracleUnavailableError struct {
	Role string
	Err  error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("oracle unavailable (%s): %v", e.Role, e.Err)
}

func (e *OracleUnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the oracle answered with content that
// does not match the expected shape: invalid JSON, missing keys, wrong
// types or out-of-range values.
type MalformedResponseError struct {
	Role    string
	Content json.RawMessage
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed oracle response (%s): %v", e.Role, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Malformed builds a MalformedResponseError for a reply that parsed but
// failed a local check.
func Malformed(role string, content json.RawMessage, format string, args ...any) error {
	return &MalformedResponseError{
		Role:    role,
		Content: content,
		Err:     fmt.Errorf(format, args...),
	}
}

// InvalidTransitionError indicates an operation that is not allowed in the
// session's current phase, or input that does not match the current round.
type InvalidTransitionError struct {
	Op     string
	Phase  string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("invalid transition %s: %s", e.Op, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s in phase %s: %s", e.Op, e.Phase, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s in phase %s", e.Op, e.Phase)
}

// OracleFailure classifies an error returned by an llm.Provider into the
// session error taxonomy.
func OracleFailure(role string, err error) error {
	var inv *llm.ErrInvalidResponse
	if errors.As(err, &inv) {
		return &MalformedResponseError{Role: role, Content: inv.Content, Err: err}
	}
	var maxTok *llm.ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return &MalformedResponseError{Role: role, Content: maxTok.Content, Err: err}
	}
	return &OracleUnavailableError{Role: role, Err: err}
}

// IsOracleUnavailable reports whether err is an OracleUnavailableError.
func IsOracleUnavailable(err error) bool {
	var e *OracleUnavailableError
	return errors.As(err, &e)
}

// IsMalformedResponse reports whether err is a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var e *MalformedResponseError
	return errors.As(err, &e)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}
