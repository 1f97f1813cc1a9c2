package tui

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizgate/internal/session"
)

// deps are shared by all screens of one program run.
type deps struct {
	ctx    context.Context
	orch   *session.Orchestrator
	store  session.Store
	logger *slog.Logger
}

// op is an orchestrator transition started from the quiz screen.
type op int

const (
	opStartRound op = iota
	opSubmit
	opResolve
)

func (o op) label() string {
	switch o {
	case opStartRound:
		return "Preparing your round"
	case opSubmit:
		return "Scoring your answers"
	case opResolve:
		return "Deciding whether you move on"
	}
	return ""
}

type mode int

const (
	modeLoading   mode = iota // transition in flight
	modeAnswering             // questions on screen
	modeReview                // round scored, gate not resolved
	modeVerdict               // gate resolved, next round pending
	modeCompleted
	modeFailed
)

// QuizScreen plays a session: it answers rounds, shows the scores and
// resolves the gate until the last level is passed.
type QuizScreen struct {
	deps  deps
	state *session.State

	mode mode
	op   op
	err  error

	answers []string
	current int
	input   answerInput

	spinnerFrame int
}

var _ Screen = (*QuizScreen)(nil)
var _ KeyHintProvider = (*QuizScreen)(nil)
var _ StatusProvider = (*QuizScreen)(nil)

func newQuizScreen(d deps, st *session.State) *QuizScreen {
	s := &QuizScreen{
		deps:  d,
		state: st,
		input: newAnswerInput("Type your answer...", 2000),
	}
	switch st.Phase() {
	case session.PhaseAnswering:
		s.beginAnswering()
	case session.PhaseAwaitingGate:
		s.mode = modeReview
	case session.PhaseCompleted:
		s.mode = modeCompleted
	default:
		s.mode = modeLoading
		s.op = opStartRound
	}
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	if s.mode == modeLoading {
		return s.run(s.op)
	}
	return s.input.Init()
}

func (s *QuizScreen) Title() string { return s.state.Topic() }

func (s *QuizScreen) Status() string {
	status := s.state.Level().String()
	if r := s.state.Round(); r != nil {
		status += " · round " + strconv.Itoa(r.Number)
	}
	return status
}

func (s *QuizScreen) KeyHints() []KeyHint {
	switch s.mode {
	case modeAnswering:
		hints := []KeyHint{{Key: "Enter", Description: "Next"}}
		if s.current > 0 {
			hints = append(hints, KeyHint{Key: "↑", Description: "Previous"})
		}
		return append(hints,
			KeyHint{Key: "Ctrl+R", Description: "New questions"},
			KeyHint{Key: "Esc", Description: "Leave"})
	case modeReview:
		return []KeyHint{{Key: "Enter", Description: "Resolve gate"}, {Key: "Esc", Description: "Leave"}}
	case modeVerdict:
		return []KeyHint{{Key: "Enter", Description: "Next round"}, {Key: "Esc", Description: "Leave"}}
	case modeCompleted:
		return []KeyHint{{Key: "Enter", Description: "New topic"}}
	case modeFailed:
		return []KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Leave"}}
	}
	return []KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
}

func (s *QuizScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case transitionMsg:
		return s.handleTransition(msg)
	case spinnerTickMsg:
		if s.mode != modeLoading {
			return s, nil
		}
		s.spinnerFrame++
		return s, spinnerTick()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.mode == modeAnswering {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (Screen, tea.Cmd) {
	key := msg.String()
	switch s.mode {
	case modeAnswering:
		switch key {
		case "enter":
			return s.nextQuestion()
		case "up":
			if s.current > 0 {
				s.answers[s.current] = s.input.Value()
				s.current--
				s.input.SetValue(s.answers[s.current])
			}
			return s, nil
		case "ctrl+r":
			return s, s.run(opStartRound)
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case modeReview:
		if key == "enter" {
			return s, s.run(opResolve)
		}
	case modeVerdict:
		if key == "enter" {
			return s, s.run(opStartRound)
		}
	case modeCompleted:
		if key == "enter" {
			return s, pop
		}
	case modeFailed:
		if key == "r" {
			return s, s.run(s.op)
		}
	}
	return s, nil
}

func (s *QuizScreen) nextQuestion() (Screen, tea.Cmd) {
	if len(s.answers) == 0 {
		return s, s.run(opSubmit)
	}
	s.answers[s.current] = strings.TrimSpace(s.input.Value())
	if s.current < len(s.answers)-1 {
		s.current++
		s.input.SetValue(s.answers[s.current])
		return s, nil
	}
	return s, s.run(opSubmit)
}

// run starts op in the background and shows the spinner until it
// reports back.
func (s *QuizScreen) run(o op) tea.Cmd {
	s.mode = modeLoading
	s.op = o
	s.err = nil
	s.spinnerFrame = 0
	return tea.Batch(s.transition(o), spinnerTick())
}

func (s *QuizScreen) transition(o op) tea.Cmd {
	d := s.deps
	st := s.state
	var sub session.Submission
	if o == opSubmit {
		sub = session.Submission{RoundID: st.Round().ID, Answers: append([]string(nil), s.answers...)}
	}

	return func() tea.Msg {
		var (
			next *session.State
			err  error
		)
		switch o {
		case opStartRound:
			next, err = d.orch.StartRound(d.ctx, st)
		case opSubmit:
			next, err = d.orch.SubmitAnswers(d.ctx, st, sub)
		case opResolve:
			next, err = d.orch.ResolveGate(d.ctx, st)
		}
		if err != nil {
			return transitionMsg{Op: o, Err: err}
		}
		if d.store != nil {
			if serr := d.store.Save(d.ctx, next); serr != nil {
				d.logger.Warn("failed to save session", "session_id", next.ID(), "error", serr)
			}
		}
		return transitionMsg{Op: o, State: next}
	}
}

func (s *QuizScreen) handleTransition(msg transitionMsg) (Screen, tea.Cmd) {
	if msg.Op != s.op || s.mode != modeLoading {
		return s, nil
	}
	if msg.Err != nil {
		s.mode = modeFailed
		s.err = msg.Err
		return s, nil
	}

	s.state = msg.State
	switch msg.Op {
	case opStartRound:
		s.beginAnswering()
		return s, s.input.Init()
	case opSubmit:
		s.mode = modeReview
	case opResolve:
		if s.state.Completed() {
			s.mode = modeCompleted
		} else {
			s.mode = modeVerdict
		}
	}
	return s, nil
}

func (s *QuizScreen) beginAnswering() {
	s.mode = modeAnswering
	s.answers = make([]string, len(s.state.Questions()))
	s.current = 0
	s.input.Reset()
}

func spinnerTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
