package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode reports "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"},
	}

	for _, tt := range tests {
		var got string
		if err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"sessions", "llm_request_events", "gate_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Open already seeded the counter; a second counter shares the row.
	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	for i := range 5 {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if want := int64(i + 1); seq != want {
			t.Errorf("seq[%d] = %d, want %d", i, seq, want)
		}
	}
}

func TestSessionSaveLoadReplace(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	rec, err := repo.LoadSession(ctx, "missing")
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil record for unknown id")
	}

	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	err = repo.SaveSession(ctx, &SessionRecord{
		ID:        "s1",
		Topic:     "Go generics",
		Level:     "beginner",
		Phase:     "answering",
		Data:      json.RawMessage(`{"round":1}`),
		CreatedAt: created,
		UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	err = repo.SaveSession(ctx, &SessionRecord{
		ID:        "s1",
		Topic:     "Go generics",
		Level:     "intermediate",
		Phase:     "round_pending",
		Data:      json.RawMessage(`{"round":2}`),
		CreatedAt: created.Add(time.Hour),
		UpdatedAt: created.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	rec, err = repo.LoadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Level != "intermediate" || rec.Phase != "round_pending" {
		t.Errorf("record not replaced: %+v", rec)
	}
	if string(rec.Data) != `{"round":2}` {
		t.Errorf("data = %s", rec.Data)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("created_at changed on replace: %s", rec.CreatedAt)
	}
	if !rec.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("updated_at = %s", rec.UpdatedAt)
	}
}

func TestSessionListDeletePrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		err := repo.SaveSession(ctx, &SessionRecord{
			ID:        id,
			Topic:     "SQL joins",
			Level:     "beginner",
			Phase:     "awaiting_topic",
			Data:      json.RawMessage(`{}`),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	list, err := repo.ListSessions(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "mid" {
		t.Fatalf("unexpected order: %+v", list)
	}

	n, err := repo.PruneSessions(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}

	if err := repo.DeleteSession(ctx, "mid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err = repo.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "new" {
		t.Fatalf("expected only 'new' left, got %+v", list)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	calls := []LLMRequestEventData{
		{SessionID: "s1", Provider: "openai", Model: "gpt-4o-mini", Purpose: "subtopic-plan", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true, RequestBody: "[user]\nTopic: Rust", ResponseBody: `{"subtopics":["a","b","c"]}`},
		{SessionID: "s1", Provider: "openai", Model: "gpt-4o-mini", Purpose: "answer-eval", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: true},
		{SessionID: "s2", Provider: "openai", Model: "gpt-4o", Purpose: "answer-eval", InputTokens: 70, OutputTokens: 30, LatencyMs: 500, Success: false, ErrorMessage: "rate limited"},
	}
	for _, c := range calls {
		if err := repo.AppendLLMRequest(ctx, c); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].Sequence <= all[1].Sequence {
		t.Fatalf("expected 3 events newest first, got %+v", all)
	}

	evals, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "answer-eval", SessionID: "s1"})
	if err != nil {
		t.Fatalf("query filtered: %v", err)
	}
	if len(evals) != 1 || evals[0].LatencyMs != 100 {
		t.Fatalf("unexpected filtered events: %+v", evals)
	}

	first, err := repo.GetLLMEvent(ctx, all[2].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.ResponseBody != `{"subtopics":["a","b","c"]}` || !first.Success {
		t.Errorf("unexpected event: %+v", first)
	}
	if missing, err := repo.GetLLMEvent(ctx, 9999); err != nil || missing != nil {
		t.Errorf("expected nil for unknown id, got %+v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[0].Purpose != "answer-eval" || byPurpose[0].Calls != 2 {
		t.Fatalf("unexpected purpose usage: %+v", byPurpose)
	}
	if byPurpose[0].InputTokens != 120 || byPurpose[0].AvgLatencyMs != 300 {
		t.Errorf("unexpected aggregates: %+v", byPurpose[0])
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model usage: %+v", byModel)
	}
}

func TestGateEventsShareSequenceWithLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{SessionID: "s1", Purpose: "gate-decision", Success: true}); err != nil {
		t.Fatalf("append llm: %v", err)
	}
	err := repo.AppendGateEvent(ctx, GateEventData{
		SessionID:           "s1",
		Topic:               "Kubernetes",
		Level:               "beginner",
		Round:               1,
		Overall:             0.75,
		OracleAdvance:       true,
		Advance:             false,
		Overridden:          true,
		Reason:              "pods were shaky",
		AdditionalSubtopics: []string{"pods"},
		Outcome:             "remediate",
	})
	if err != nil {
		t.Fatalf("append gate: %v", err)
	}
	if err := repo.AppendGateEvent(ctx, GateEventData{SessionID: "s2", Topic: "Kubernetes", Level: "beginner", Round: 1, Outcome: "retry"}); err != nil {
		t.Fatalf("append gate: %v", err)
	}

	events, err := repo.QueryGateEvents(ctx, QueryOpts{SessionID: "s1"})
	if err != nil {
		t.Fatalf("query gate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 gate event, got %d", len(events))
	}
	e := events[0]
	if e.Sequence != 2 {
		t.Errorf("sequence = %d, want 2", e.Sequence)
	}
	if !e.Overridden || e.Advance || !e.OracleAdvance || e.Overall != 0.75 {
		t.Errorf("unexpected gate event: %+v", e)
	}
	if len(e.AdditionalSubtopics) != 1 || e.AdditionalSubtopics[0] != "pods" {
		t.Errorf("additional subtopics = %v", e.AdditionalSubtopics)
	}

	other, err := repo.QueryGateEvents(ctx, QueryOpts{SessionID: "s2"})
	if err != nil {
		t.Fatalf("query gate: %v", err)
	}
	if len(other) != 1 || other[0].AdditionalSubtopics == nil {
		t.Fatalf("expected empty, non-nil subtopic list, got %+v", other)
	}
}
