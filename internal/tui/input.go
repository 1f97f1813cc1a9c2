package tui

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// answerInput wraps a bubbles text input for free-text answers.
type answerInput struct {
	model textinput.Model
}

func newAnswerInput(placeholder string, limit int) answerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return answerInput{model: ti}
}

func (in answerInput) Init() tea.Cmd {
	return in.model.Focus()
}

func (in answerInput) Update(msg tea.Msg) (answerInput, tea.Cmd) {
	var cmd tea.Cmd
	in.model, cmd = in.model.Update(msg)
	return in, cmd
}

func (in answerInput) View() string { return in.model.View() }

func (in answerInput) Value() string { return in.model.Value() }

func (in *answerInput) SetValue(s string) {
	in.model.SetValue(s)
	in.model.CursorEnd()
}

func (in *answerInput) Reset() { in.model.Reset() }
