package tui

import (
	"time"

	"github.com/abhisek/quizgate/internal/session"
)

// transitionMsg carries the result of an orchestrator call.
type transitionMsg struct {
	Op    op
	State *session.State
	Err   error
}

// spinnerTickMsg animates the loading indicator.
type spinnerTickMsg time.Time
