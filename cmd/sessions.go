package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgate/internal/session"
	"github.com/abhisek/quizgate/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and manage saved quiz sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently updated sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		repo, release, err := sessionRepo(ctx, st)
		if err != nil {
			return err
		}
		defer release()

		recs, err := repo.ListSessions(ctx, limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		t := newTable("ID", "Topic", "Level", "Phase", "Updated")
		for _, r := range recs {
			t.Row(r.ID, truncate(r.Topic, 24), r.Level, r.Phase, r.UpdatedAt.Local().Format(timeLayout))
		}
		fmt.Println(t.String())
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session and its gate history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		repo, release, err := sessionRepo(ctx, st)
		if err != nil {
			return err
		}
		defer release()

		rec, err := repo.LoadSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("session %s not found", args[0])
		}
		state, err := session.Decode(rec)
		if err != nil {
			return err
		}

		fmt.Printf("ID:        %s\n", state.ID())
		fmt.Printf("Topic:     %s\n", state.Topic())
		fmt.Printf("Level:     %s\n", state.Level())
		fmt.Printf("Phase:     %s\n", state.Phase())
		fmt.Printf("Rounds:    %d\n", state.RoundsPlayed())
		fmt.Printf("Started:   %s\n", state.CreatedAt().Local().Format(time.DateTime))
		fmt.Printf("Updated:   %s\n", state.UpdatedAt().Local().Format(time.DateTime))

		if history := state.TopicHistory(); len(history) > 0 {
			fmt.Println()
			fmt.Println("Covered subtopics")
			for i, set := range history {
				fmt.Printf("  %d. %s\n", i+1, strings.Join(set, ", "))
			}
		}
		if pending := state.PendingSubtopics(); len(pending) > 0 {
			fmt.Printf("\nNext round: %s\n", strings.Join(pending, ", "))
		}

		if sum := session.BuildSummary(state); sum != nil {
			fmt.Println()
			fmt.Printf("Round %d (%s), overall %.2f\n", sum.Round, sum.Level, sum.Overall)
			for _, row := range sum.Subtopics {
				fmt.Printf("  %s %-40s %.2f\n", checkMark(row.Passed), truncate(row.Subtopic, 40), row.Average)
			}
		}

		events, err := st.EventRepo().QueryGateEvents(ctx, store.QueryOpts{SessionID: state.ID()})
		if err != nil {
			return fmt.Errorf("query gate events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Gate history")
		fmt.Println(strings.Repeat("─", 72))
		for i := len(events) - 1; i >= 0; i-- {
			e := events[i]
			override := ""
			if e.Overridden {
				override = " (overridden)"
			}
			fmt.Printf("%s  round %-3d %-12s overall %.2f  %s%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04"), e.Round, e.Level, e.Overall, e.Outcome, override)
			if e.Reason != "" {
				fmt.Printf("    %s\n", e.Reason)
			}
			if len(e.AdditionalSubtopics) > 0 {
				fmt.Printf("    review: %s\n", strings.Join(e.AdditionalSubtopics, ", "))
			}
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		repo, release, err := sessionRepo(ctx, st)
		if err != nil {
			return err
		}
		defer release()

		if err := repo.DeleteSession(ctx, args[0]); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions not updated recently",
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		repo, release, err := sessionRepo(ctx, st)
		if err != nil {
			return err
		}
		defer release()

		n, err := repo.PruneSessions(ctx, time.Now().Add(-olderThan))
		if err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		fmt.Printf("Pruned %d session(s).\n", n)
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	sessionsPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "Prune sessions idle for longer than this")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
}
