package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgate/internal/session"
	"github.com/abhisek/quizgate/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start or resume a quiz in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, _ := cmd.Flags().GetString("resume")
		return runPlay(cmd, resume)
	},
}

func runPlay(cmd *cobra.Command, resumeID string) error {
	ctx := cmd.Context()

	logger, closeLog, err := newLogger(cmd, true)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, err := newOrchestrator(ctx, st, logger)
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}

	sessions, release, err := sessionStore(ctx, st)
	if err != nil {
		return err
	}
	defer release()

	opts := tui.Options{Orchestrator: orch, Store: sessions, Logger: logger}
	if resumeID != "" {
		state, err := sessions.Load(ctx, resumeID)
		if errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("no session with ID %s", resumeID)
		}
		if err != nil {
			return err
		}
		opts.Resume = state
	}

	return tui.Run(ctx, opts)
}

func init() {
	playCmd.Flags().String("resume", "", "Resume the session with this ID")
}
