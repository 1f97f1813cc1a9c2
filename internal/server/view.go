package server

import (
	"time"

	"github.com/abhisek/quizgate/internal/quiz"
	"github.com/abhisek/quizgate/internal/session"
)

type roundView struct {
	ID          string          `json:"id"`
	Number      int             `json:"number"`
	Level       quiz.Level      `json:"level"`
	Subtopics   []string        `json:"subtopics"`
	Questions   []quiz.Question `json:"questions"`
	Remediation bool            `json:"remediation"`
}

// sessionView is the API representation of a session. Answer records are
// only exposed through the round summary.
type sessionView struct {
	ID           string            `json:"id"`
	Topic        string            `json:"topic"`
	Level        quiz.Level        `json:"level"`
	Phase        session.Phase     `json:"phase"`
	Completed    bool              `json:"completed"`
	RoundsPlayed int               `json:"rounds_played"`
	Round        *roundView        `json:"round,omitempty"`
	Summary      *session.Summary  `json:"summary,omitempty"`
	Verdict      *quiz.GateVerdict `json:"last_verdict,omitempty"`
	Outcome      session.Outcome   `json:"last_outcome,omitempty"`
	TopicHistory [][]string        `json:"topic_history"`
	Pending      []string          `json:"pending_subtopics,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func newSessionView(st *session.State) sessionView {
	v := sessionView{
		ID:           st.ID(),
		Topic:        st.Topic(),
		Level:        st.Level(),
		Phase:        st.Phase(),
		Completed:    st.Completed(),
		RoundsPlayed: st.RoundsPlayed(),
		Summary:      session.BuildSummary(st),
		Verdict:      st.LastVerdict(),
		Outcome:      st.LastOutcome(),
		TopicHistory: st.TopicHistory(),
		Pending:      st.PendingSubtopics(),
		CreatedAt:    st.CreatedAt(),
		UpdatedAt:    st.UpdatedAt(),
	}
	if v.TopicHistory == nil {
		v.TopicHistory = [][]string{}
	}
	if r := st.Round(); r != nil {
		v.Round = &roundView{
			ID:          r.ID,
			Number:      r.Number,
			Level:       r.Level,
			Subtopics:   r.Subtopics,
			Questions:   r.Questions,
			Remediation: r.Remediation,
		}
	}
	return v
}
