package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizgate/internal/session"
)

// Options configures the terminal UI.
type Options struct {
	Orchestrator *session.Orchestrator

	// Store persists the session after every transition. Optional.
	Store  session.Store
	Logger *slog.Logger

	// Resume opens this session instead of asking for a topic.
	Resume *session.State
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *Router
	width  int
	height int
}

func newAppModel(ctx context.Context, opts Options) AppModel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := deps{ctx: ctx, orch: opts.Orchestrator, store: opts.Store, logger: logger}

	r := NewRouter(newTopicScreen(d))
	if opts.Resume != nil {
		r.stack = append(r.stack, newQuizScreen(d, opts.Resume))
	}
	return AppModel{router: r}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, pop
			}
			return m, nil
		}
	}

	return m, m.router.Update(msg)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if isTooSmall(m.width, m.height) {
		v.SetContent(renderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	var (
		title, status string
		hints         []KeyHint
	)
	if active != nil {
		title = active.Title()
		if sp, ok := active.(StatusProvider); ok {
			status = sp.Status()
		}
		if hp, ok := active.(KeyHintProvider); ok {
			hints = hp.KeyHints()
		}
	}
	if hints == nil {
		hints = []KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}

	header := renderHeader(title, status, m.width)
	footer := renderFooter(hints, m.width)
	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	content := m.router.View(m.width, contentHeight)
	v.SetContent(renderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Orchestrator == nil {
		return errors.New("tui: orchestrator is required")
	}
	p := tea.NewProgram(newAppModel(ctx, opts), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
