package tui

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizgate/internal/quiz"
	"github.com/abhisek/quizgate/internal/session"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *QuizScreen) View(width, height int) string {
	var content string
	switch s.mode {
	case modeLoading:
		content = s.renderLoading()
	case modeAnswering:
		content = s.renderQuestion(width)
	case modeReview:
		content = s.renderResults(width)
	case modeVerdict, modeCompleted:
		content = s.renderVerdict(width)
	case modeFailed:
		content = s.renderFailure(width)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (s *QuizScreen) renderLoading() string {
	frame := spinnerFrames[s.spinnerFrame%len(spinnerFrames)]
	return lipgloss.NewStyle().Foreground(colorPrimary).Render(frame) + " " +
		bodyStyle.Render(s.op.label()+"...")
}

func (s *QuizScreen) renderQuestion(width int) string {
	questions := s.state.Questions()
	if len(questions) == 0 {
		return dimStyle.Render("This round has no questions.")
	}
	q := questions[s.current]
	inner := min(width-8, 90)

	var b strings.Builder
	round := s.state.Round()
	header := fmt.Sprintf("Question %d of %d", s.current+1, len(questions))
	if round.Remediation {
		header += "  (review round)"
	}
	b.WriteString(dimStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(subtopicStyle.Render(q.Subtopic))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Width(inner).Render(q.Text))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	return cardStyle.Width(inner + 4).Render(b.String())
}

func (s *QuizScreen) renderResults(width int) string {
	sum := session.BuildSummary(s.state)
	if sum == nil {
		return dimStyle.Render("No answers recorded.")
	}
	inner := min(width-8, 90)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Round %d results", sum.Round)))
	b.WriteString("\n\n")
	for _, row := range sum.Subtopics {
		mark := passStyle.Render("✓")
		if !row.Passed {
			mark = failStyle.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %s  %s\n", mark,
			bodyStyle.Render(truncate(row.Subtopic, inner-16)),
			dimStyle.Render(fmt.Sprintf("%.2f", row.Average))))
	}
	b.WriteString("\n")
	b.WriteString(bodyStyle.Bold(true).Render(fmt.Sprintf("Overall: %.2f", sum.Overall)))
	b.WriteString("\n\n")

	for i, rec := range sum.Answers {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d. %s", i+1, truncate(rec.Question, inner-4))))
		b.WriteString("\n")
		b.WriteString(scoreStyle(rec.Score).Render(fmt.Sprintf("   %.2f", rec.Score)))
		b.WriteString(" ")
		b.WriteString(hintStyle.Render(truncate(rec.Feedback, inner-10)))
		b.WriteString("\n")
	}
	return cardStyle.Width(inner + 4).Render(strings.TrimRight(b.String(), "\n"))
}

func (s *QuizScreen) renderVerdict(width int) string {
	inner := min(width-8, 90)
	v := s.state.LastVerdict()

	var b strings.Builder
	switch s.state.LastOutcome() {
	case session.OutcomeComplete:
		b.WriteString(passStyle.Render("You passed the final level of " + s.state.Topic() + "!"))
	case session.OutcomeAdvance:
		b.WriteString(passStyle.Render("Level up! Next: " + s.state.Level().String()))
	case session.OutcomeRemediate:
		b.WriteString(titleStyle.Render("A few subtopics need another look"))
	default:
		b.WriteString(failStyle.Render("Not quite yet. Let's try that again"))
	}
	b.WriteString("\n\n")

	if v != nil && v.Reason != "" {
		b.WriteString(bodyStyle.Width(inner).Render(v.Reason))
		b.WriteString("\n")
	}
	if pending := s.state.PendingSubtopics(); len(pending) > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Next round covers:"))
		b.WriteString("\n")
		for _, p := range pending {
			b.WriteString("  • " + subtopicStyle.Render(p) + "\n")
		}
	}
	if s.mode == modeCompleted {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d rounds played.", s.state.RoundsPlayed())))
	}
	return cardStyle.Width(inner + 4).Render(strings.TrimRight(b.String(), "\n"))
}

func (s *QuizScreen) renderFailure(width int) string {
	inner := min(width-8, 90)
	title := "Something went wrong"
	switch {
	case quiz.IsOracleUnavailable(s.err):
		title = "The quiz service is unavailable"
	case quiz.IsMalformedResponse(s.err):
		title = "The quiz service sent an unusable reply"
	}

	var b strings.Builder
	b.WriteString(failStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Width(inner).Render(s.err.Error()))
	var it *quiz.InvalidTransitionError
	if !errors.As(s.err, &it) {
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("Your progress is unchanged. Press R to try again."))
	}
	return cardStyle.Width(inner + 4).Render(b.String())
}

func scoreStyle(score float64) lipgloss.Style {
	if score >= quiz.PassThreshold {
		return passStyle
	}
	return failStyle
}
