package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/quizgate/internal/store"
	"github.com/google/uuid"
)

func openEventRepo(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLoggingProvider_RecordsSuccessAndFailure(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"score":0.9,"feedback":"good"}`), Usage: Usage{InputTokens: 40, OutputTokens: 12}},
		MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`{"score":"?"}`), Err: errors.New("bad score")}},
	)
	p := WithLogging(mock, repo)

	ctx := WithSessionID(WithPurpose(context.Background(), "answer-eval"), "sess-42")
	req := Request{
		System:   "Grade the answer.",
		Messages: []Message{{Role: RoleUser, Content: "Answer: a goroutine is a thread"}},
		Schema:   evaluationSchema(false),
	}

	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected error from second call")
	}

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{SessionID: "sess-42"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	failed, ok := events[0], events[1]
	if !ok.Success || ok.Purpose != "answer-eval" || ok.Provider != ProviderMock || ok.InputTokens != 40 {
		t.Errorf("unexpected success event: %+v", ok)
	}
	if !strings.Contains(ok.RequestBody, "[schema: answer-evaluation]") || !strings.Contains(ok.RequestBody, "[system]\nGrade the answer.") {
		t.Errorf("request body not serialized: %q", ok.RequestBody)
	}
	if failed.Success || !strings.Contains(failed.ErrorMessage, "bad score") {
		t.Errorf("unexpected failure event: %+v", failed)
	}
	if failed.ResponseBody != `{"score":"?"}` {
		t.Errorf("expected rejected reply to be kept, got %q", failed.ResponseBody)
	}
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock model, got %q", p.ModelID())
	}
}
