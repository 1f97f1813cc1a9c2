package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizgate/internal/quiz"
)

// TopicScreen asks for the topic of a new session.
type TopicScreen struct {
	deps   deps
	input  answerInput
	errMsg string
}

var _ Screen = (*TopicScreen)(nil)
var _ KeyHintProvider = (*TopicScreen)(nil)

func newTopicScreen(d deps) *TopicScreen {
	return &TopicScreen{
		deps:  d,
		input: newAnswerInput("e.g. Go concurrency", 120),
	}
}

func (s *TopicScreen) Init() tea.Cmd { return s.input.Init() }

func (s *TopicScreen) Title() string { return "New Session" }

func (s *TopicScreen) KeyHints() []KeyHint {
	return []KeyHint{
		{Key: "Enter", Description: "Start"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *TopicScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		st, err := s.deps.orch.StartTopic(s.input.Value())
		if err != nil {
			if quiz.IsInvalidTransition(err) {
				s.errMsg = "Please enter a topic."
			} else {
				s.errMsg = err.Error()
			}
			return s, nil
		}
		s.errMsg = ""
		s.input.Reset()
		return s, push(newQuizScreen(s.deps, st))
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *TopicScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("What do you want to be quizzed on?"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"You start at %s and move up a level each time the gate is passed.", quiz.LevelBeginner)))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(failStyle.Render(s.errMsg))
	}

	card := cardStyle.Width(min(width-4, 72)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
